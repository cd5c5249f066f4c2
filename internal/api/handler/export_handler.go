package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fieldops/backend/internal/service"
	"fieldops/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 导出日期范围内的工单排期表
// GET /api/v1/export/schedule?from=2026-03-01&to=2026-03-08
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.BadRequest(c, 10001, "from 日期格式无效")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "to 日期格式无效")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// ExportInvoices 导出某年度的发票台账
// GET /api/v1/export/invoices?year=2026
func (h *ExportHandler) ExportInvoices(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, 10001, "year 参数无效")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportInvoices(c.Request.Context(), tenantID, year)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// writeXLSX 设置下载响应头并写出 Excel 内容
func writeXLSX(c *gin.Context, data []byte, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 19001, "所选范围内没有数据")
	case errors.Is(err, service.ErrBadTimeRange):
		response.BadRequest(c, 14002, "时间区间无效")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/export_handler.go
