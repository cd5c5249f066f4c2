package model

import "time"

// TimeEntry 工时记录表 — 对应 time_entries
// EndedAt 为 NULL 表示计时器仍在运行；每用户同时最多一个运行中的计时器
type TimeEntry struct {
	TimeEntryID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_entry_id"`
	TenantID    string     `gorm:"type:uuid;not null"                             json:"tenant_id"`
	UserID      string     `gorm:"type:uuid;not null"                             json:"user_id"`
	JobID       *string    `gorm:"type:uuid"                                      json:"job_id,omitempty"`
	StartedAt   time.Time  `gorm:"not null"                                       json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Minutes     int        `gorm:"not null;default:0"                             json:"minutes"`
	Note        string     `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Job  *Job  `gorm:"foreignKey:JobID;references:JobID"   json:"job,omitempty"`
}

// TableName 指定表名
func (TimeEntry) TableName() string { return "time_entries" }

// IsRunning 计时器是否仍在运行
func (t *TimeEntry) IsRunning() bool { return t.EndedAt == nil }
