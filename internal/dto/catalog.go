package dto

// ── 服务目录模块 DTO ──

// WorkingHourInput 营业时间窗口输入
type WorkingHourInput struct {
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string `json:"start_time"  binding:"required,len=5"` // "09:00"
	EndTime   string `json:"end_time"    binding:"required,len=5"` // "17:00"
}

// CreateServiceRequest 创建服务项目请求
type CreateServiceRequest struct {
	Name                string             `json:"name"          binding:"required,min=1,max=200"`
	Description         string             `json:"description"   binding:"omitempty,max=1000"`
	DurationMin         int                `json:"duration_min"  binding:"required,min=5,max=1440"`
	PriceCents          int64              `json:"price_cents"   binding:"omitempty,min=0"`
	BufferMin           int                `json:"buffer_min"    binding:"omitempty,min=0,max=480"`
	RequireConfirmation *bool              `json:"require_confirmation"`
	WorkingHours        []WorkingHourInput `json:"working_hours" binding:"omitempty,dive"`
}

// UpdateServiceRequest 更新服务项目请求
type UpdateServiceRequest struct {
	Name                *string            `json:"name"          binding:"omitempty,min=1,max=200"`
	Description         *string            `json:"description"   binding:"omitempty,max=1000"`
	DurationMin         *int               `json:"duration_min"  binding:"omitempty,min=5,max=1440"`
	PriceCents          *int64             `json:"price_cents"   binding:"omitempty,min=0"`
	BufferMin           *int               `json:"buffer_min"    binding:"omitempty,min=0,max=480"`
	IsActive            *bool              `json:"is_active"`
	RequireConfirmation *bool              `json:"require_confirmation"`
	WorkingHours        []WorkingHourInput `json:"working_hours" binding:"omitempty,dive"` // 提供时整体替换
}

// ServiceListRequest 服务列表查询参数
type ServiceListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// ── 响应 ──

// WorkingHourResponse 营业时间响应
type WorkingHourResponse struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ServiceResponse 服务项目响应
type ServiceResponse struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description,omitempty"`
	DurationMin         int                   `json:"duration_min"`
	PriceCents          int64                 `json:"price_cents"`
	BufferMin           int                   `json:"buffer_min"`
	IsActive            bool                  `json:"is_active"`
	RequireConfirmation bool                  `json:"require_confirmation"`
	WorkingHours        []WorkingHourResponse `json:"working_hours,omitempty"`
	CreatedAt           string                `json:"created_at"`
	UpdatedAt           string                `json:"updated_at"`
}

// ServiceBrief 服务简要信息
type ServiceBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min"`
	PriceCents  int64  `json:"price_cents"`
}
