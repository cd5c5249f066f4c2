package dto

// ── 在线预约模块 DTO ──

// AvailabilityRequest 可用时段查询参数（公开接口）
type AvailabilityRequest struct {
	Date string `form:"date" binding:"required,len=10"` // "2026-08-25"
	Days int    `form:"days" binding:"omitempty,min=1,max=31"`
}

// PublicBookingRequest 公开预约请求
type PublicBookingRequest struct {
	StartTime string `json:"start_time" binding:"required"` // RFC3339
	Name      string `json:"name"       binding:"required,min=1,max=200"`
	Email     string `json:"email"      binding:"required,email"`
	Phone     string `json:"phone"      binding:"omitempty,max=50"`
	Notes     string `json:"notes"      binding:"omitempty,max=2000"`
}

// ConfirmBookingRequest 确认预约请求
type ConfirmBookingRequest struct {
	Message string `json:"message" binding:"omitempty,max=1000"` // 附加给客户的说明
}

// DeclineBookingRequest 拒绝预约请求
type DeclineBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ── 响应 ──

// SlotResponse 可预约时段
type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DayAvailabilityResponse 单日可用时段
type DayAvailabilityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

// AvailabilityResponse 可用时段查询结果
type AvailabilityResponse struct {
	ServiceID   string                    `json:"service_id"`
	ServiceName string                    `json:"service_name"`
	DurationMin int                       `json:"duration_min"`
	Days        []DayAvailabilityResponse `json:"days"`
}

// PublicBookingResponse 公开预约结果
type PublicBookingResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"` // pending_confirmation 或 scheduled
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
