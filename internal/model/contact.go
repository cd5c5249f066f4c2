package model

// Contact 联系人表 — 对应 contacts
// CRM 客户档案；归档即软删除（DeletedAt）
type Contact struct {
	ContactID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"contact_id"`
	TenantID  string `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Name      string `gorm:"type:varchar(200);not null"                     json:"name"`
	Email     string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone     string `gorm:"type:varchar(50)"                               json:"phone,omitempty"`
	Address   string `gorm:"type:varchar(500)"                              json:"address,omitempty"`
	Notes     string `gorm:"type:text"                                      json:"notes,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Contact) TableName() string { return "contacts" }
