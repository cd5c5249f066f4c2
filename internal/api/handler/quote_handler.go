package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/service"
	"fieldops/backend/pkg/response"
)

// QuoteHandler 报价单模块 HTTP 处理器
type QuoteHandler struct {
	quoteSvc service.QuoteService
}

// NewQuoteHandler 创建 QuoteHandler
func NewQuoteHandler(quoteSvc service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

// CreateQuote 创建报价单
// POST /api/v1/quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	quote, err := h.quoteSvc.Create(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		h.handleQuoteError(c, err)
		return
	}

	response.Created(c, quote)
}

// GetQuote 获取报价单详情
// GET /api/v1/quotes/:id
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报价单ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	quote, err := h.quoteSvc.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleQuoteError(c, err)
		return
	}

	response.OK(c, quote)
}

// ListQuotes 获取报价单列表
// GET /api/v1/quotes?status=sent&page=1
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.QuoteListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	quotes, total, err := h.quoteSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, quotes, total, req.GetPage(), req.GetPageSize())
}

// UpdateQuote 更新报价单（仅草稿，明细整体替换）
// PUT /api/v1/quotes/:id
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报价单ID不能为空")
		return
	}

	var req dto.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	quote, err := h.quoteSvc.Update(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleQuoteError(c, err)
		return
	}

	response.OK(c, quote)
}

// SendQuote 发出报价单
// POST /api/v1/quotes/:id/send
func (h *QuoteHandler) SendQuote(c *gin.Context) {
	h.transition(c, h.quoteSvc.Send)
}

// AcceptQuote 客户接受报价单
// POST /api/v1/quotes/:id/accept
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	h.transition(c, h.quoteSvc.Accept)
}

// DeclineQuote 客户拒绝报价单
// POST /api/v1/quotes/:id/decline
func (h *QuoteHandler) DeclineQuote(c *gin.Context) {
	h.transition(c, h.quoteSvc.Decline)
}

// DeleteQuote 删除报价单（仅草稿）
// DELETE /api/v1/quotes/:id
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报价单ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.quoteSvc.Delete(c.Request.Context(), tenantID, id, callerID); err != nil {
		h.handleQuoteError(c, err)
		return
	}

	response.OK(c, nil)
}

// transition 报价单状态流转的公共骨架
func (h *QuoteHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, tenantID, id, callerID string) (*dto.QuoteResponse, error),
) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报价单ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	quote, err := op(c.Request.Context(), tenantID, id, callerID)
	if err != nil {
		h.handleQuoteError(c, err)
		return
	}

	response.OK(c, quote)
}

// handleQuoteError 统一处理报价单模块业务错误
func (h *QuoteHandler) handleQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQuoteNotFound):
		response.NotFound(c, 16001, "报价单不存在")
	case errors.Is(err, service.ErrContactNotFound):
		response.NotFound(c, 12001, "联系人不存在")
	case errors.Is(err, service.ErrQuoteNotDraft):
		response.Conflict(c, 16002, "仅草稿状态的报价单可修改")
	case errors.Is(err, service.ErrQuoteNotSent):
		response.Conflict(c, 16003, "仅已发出的报价单可接受或拒绝")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/quote_handler.go
