package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求（创建租户 + 所有者账号）
type RegisterRequest struct {
	BusinessName string `json:"business_name" binding:"required,min=2,max=200"`
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	Email        string `json:"email"         binding:"required,email"`
	Password     string `json:"password"      binding:"required,min=8,max=72"`
	Phone        string `json:"phone"         binding:"omitempty,max=50"`
	Timezone     string `json:"timezone"      binding:"omitempty,max=50"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// CreateStaffRequest 创建员工账号请求（仅 owner）
type CreateStaffRequest struct {
	Name     string `json:"name"     binding:"required,min=1,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// ── 响应 ──

// AuthResponse 登录/注册/刷新响应
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// TenantResponse 租户信息响应
type TenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Timezone  string `json:"timezone"`
	FeedToken string `json:"feed_token,omitempty"`
	CreatedAt string `json:"created_at"`
}
