package model

import "time"

// 报价单状态
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
)

// Quote 报价单表 — 对应 quotes
// TotalCents 由服务端根据明细行汇总计算，不信任客户端
type Quote struct {
	QuoteID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"quote_id"`
	TenantID   string     `gorm:"type:uuid;not null"                             json:"tenant_id"`
	ContactID  string     `gorm:"type:uuid;not null"                             json:"contact_id"`
	Title      string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Status     string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	TotalCents int64      `gorm:"not null;default:0"                             json:"total_cents"`
	ValidUntil *time.Time `gorm:"type:date"                                      json:"valid_until,omitempty"`
	VersionedModel

	// 关联
	Contact   *Contact        `gorm:"foreignKey:ContactID;references:ContactID" json:"contact,omitempty"`
	LineItems []QuoteLineItem `gorm:"foreignKey:QuoteID"                        json:"line_items,omitempty"`
}

// TableName 指定表名
func (Quote) TableName() string { return "quotes" }

// QuoteLineItem 报价明细表 — 对应 quote_line_items
type QuoteLineItem struct {
	LineItemID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"line_item_id"`
	QuoteID        string `gorm:"type:uuid;not null"                             json:"quote_id"`
	Description    string `gorm:"type:varchar(500);not null"                     json:"description"`
	Quantity       int    `gorm:"not null;default:1"                             json:"quantity"`
	UnitPriceCents int64  `gorm:"not null;default:0"                             json:"unit_price_cents"`
	SortOrder      int    `gorm:"not null;default:0"                             json:"sort_order"`
	BaseModel
}

// TableName 指定表名
func (QuoteLineItem) TableName() string { return "quote_line_items" }
