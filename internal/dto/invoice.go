package dto

// ── 发票模块 DTO ──

// CreateInvoiceRequest 创建发票请求
// FromQuoteID 提供时从已接受报价单复制明细，LineItems 可省略
type CreateInvoiceRequest struct {
	ContactID   string          `json:"contact_id"    binding:"required,uuid"`
	FromQuoteID *string         `json:"from_quote_id" binding:"omitempty,uuid"`
	DueDays     int             `json:"due_days"      binding:"omitempty,min=1,max=365"`
	LineItems   []LineItemInput `json:"line_items"    binding:"omitempty,dive"`
}

// UpdateInvoiceRequest 更新发票请求（仅草稿可改）
type UpdateInvoiceRequest struct {
	DueDays   *int            `json:"due_days"   binding:"omitempty,min=1,max=365"`
	LineItems []LineItemInput `json:"line_items" binding:"omitempty,min=1,dive"` // 提供时整体替换
}

// RecordPaymentRequest 登记收款请求
type RecordPaymentRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	Method      string `json:"method"       binding:"required,oneof=cash card transfer other"`
	PaidAt      string `json:"paid_at"      binding:"omitempty"` // RFC3339，省略为当前时间
	Note        string `json:"note"         binding:"omitempty,max=500"`
}

// InvoiceListRequest 发票列表查询参数
type InvoiceListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=draft sent paid void"`
	Year   int    `form:"year"   binding:"omitempty,min=2000,max=2100"`
	PaginationRequest
}

// ── 响应 ──

// PaymentResponse 收款记录响应
type PaymentResponse struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	PaidAt      string `json:"paid_at"`
	Note        string `json:"note,omitempty"`
}

// InvoiceResponse 发票响应
type InvoiceResponse struct {
	ID           string             `json:"id"`
	Number       string             `json:"number"`
	ContactID    string             `json:"contact_id"`
	Contact      *ContactBrief      `json:"contact,omitempty"`
	QuoteID      *string            `json:"quote_id,omitempty"`
	Status       string             `json:"status"`
	Overdue      bool               `json:"overdue"`
	TotalCents   int64              `json:"total_cents"`
	PaidCents    int64              `json:"paid_cents"`
	BalanceCents int64              `json:"balance_cents"`
	DueDate      string             `json:"due_date,omitempty"`
	IssuedAt     string             `json:"issued_at,omitempty"`
	LineItems    []LineItemResponse `json:"line_items,omitempty"`
	Payments     []PaymentResponse  `json:"payments,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}
