package dto

// ── 联系人模块 DTO ──

// CreateContactRequest 创建联系人请求
type CreateContactRequest struct {
	Name    string `json:"name"    binding:"required,min=1,max=200"`
	Email   string `json:"email"   binding:"omitempty,email"`
	Phone   string `json:"phone"   binding:"omitempty,max=50"`
	Address string `json:"address" binding:"omitempty,max=500"`
	Notes   string `json:"notes"   binding:"omitempty,max=5000"`
}

// UpdateContactRequest 更新联系人请求
type UpdateContactRequest struct {
	Name    *string `json:"name"    binding:"omitempty,min=1,max=200"`
	Email   *string `json:"email"   binding:"omitempty,email"`
	Phone   *string `json:"phone"   binding:"omitempty,max=50"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Notes   *string `json:"notes"   binding:"omitempty,max=5000"`
}

// ContactListRequest 联系人列表查询参数
type ContactListRequest struct {
	Q string `form:"q" binding:"omitempty,max=200"`
	PaginationRequest
}

// ── 响应 ──

// ContactResponse 联系人响应
type ContactResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ContactBrief 联系人简要信息
type ContactBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
