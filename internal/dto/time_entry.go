package dto

import "time"

// ── 工时模块 DTO ──

// ClockInRequest 上钟请求
type ClockInRequest struct {
	JobID *string `json:"job_id" binding:"omitempty,uuid"`
	Note  string  `json:"note"   binding:"omitempty,max=500"`
}

// ClockOutRequest 下钟请求
type ClockOutRequest struct {
	Note string `json:"note" binding:"omitempty,max=500"`
}

// CreateTimeEntryRequest 手工补录工时请求
type CreateTimeEntryRequest struct {
	JobID     *string   `json:"job_id"     binding:"omitempty,uuid"`
	UserID    *string   `json:"user_id"    binding:"omitempty,uuid"` // 省略为当前用户；指定他人仅 owner
	StartedAt time.Time `json:"started_at" binding:"required"`
	EndedAt   time.Time `json:"ended_at"   binding:"required"`
	Note      string    `json:"note"       binding:"omitempty,max=500"`
}

// UpdateTimeEntryRequest 更新工时记录请求
type UpdateTimeEntryRequest struct {
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Note      *string    `json:"note" binding:"omitempty,max=500"`
}

// TimeEntryRangeRequest 按时间范围查询工时参数
type TimeEntryRangeRequest struct {
	UserID string    `form:"user_id" binding:"omitempty,uuid"`
	From   time.Time `form:"from"    binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To     time.Time `form:"to"      binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	PaginationRequest
}

// ── 响应 ──

// TimeEntryResponse 工时记录响应
type TimeEntryResponse struct {
	ID        string  `json:"id"`
	JobID     *string `json:"job_id,omitempty"`
	JobTitle  string  `json:"job_title,omitempty"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name,omitempty"`
	StartedAt string  `json:"started_at"`
	EndedAt   string  `json:"ended_at,omitempty"`
	Minutes   int     `json:"minutes"` // 运行中为 0，下钟时结算
	Running   bool    `json:"running"`
	Note      string  `json:"note,omitempty"`
	CreatedAt string  `json:"created_at"`
}
