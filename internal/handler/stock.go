package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"stockbook/internal/apierror"
	"stockbook/internal/dto"
	"stockbook/internal/infra"
	"stockbook/internal/service"
	"stockbook/internal/worker"

	"github.com/gin-gonic/gin"
)

const reportTitle = "Stock report"

// ReportQueue accepts report email jobs. *worker.Dispatcher satisfies it.
type ReportQueue interface {
	EnqueueReportEmail(ctx context.Context, payload worker.ReportEmailPayload) error
}

// MailStatus reports whether outgoing mail is set up. *infra.Mailer satisfies it.
type MailStatus interface {
	Configured() bool
}

type StockHandler struct {
	reports service.ReportService
	queue   ReportQueue
	mail    MailStatus
}

func NewStockHandler(reports service.ReportService, queue ReportQueue, mail MailStatus) *StockHandler {
	return &StockHandler{reports: reports, queue: queue, mail: mail}
}

// Report godoc
// @Summary      Daily opening / sales / closing report
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        date            query string false "YYYY-MM-DD, default today"
// @Param        organization_id query string false "Organization (superadmin only)"
// @Success      200  {object} dto.StockReportResponse
// @Failure      400  {object} apierror.APIError
// @Router       /stock/report [get]
func (h *StockHandler) Report(c *gin.Context) {
	var q dto.ReportQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.reports.ForActor(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary      Download the daily report as XLSX or PDF
// @Tags         stock
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        date   query string false "YYYY-MM-DD, default today"
// @Param        format query string false "xlsx (default) or pdf"
// @Success      200
// @Failure      400  {object} apierror.APIError
// @Router       /stock/report/export [get]
func (h *StockHandler) Export(c *gin.Context) {
	var q dto.ReportQuery
	if !bindQuery(c, &q) {
		return
	}
	format := strings.ToLower(strings.TrimSpace(q.Format))
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "pdf" {
		c.JSON(http.StatusBadRequest, apierror.NewField("format", "format must be xlsx or pdf"))
		return
	}

	report, err := h.reports.ForActor(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	body, contentType, err := infra.RenderReport(report, reportTitle, format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+infra.ReportFileName(report, format)+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// Email godoc
// @Summary      Queue the daily report for delivery by email
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.EmailReportRequest true "Recipient and date"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /stock/report/email [post]
func (h *StockHandler) Email(c *gin.Context) {
	var req dto.EmailReportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if h.mail == nil || !h.mail.Configured() {
		c.JSON(http.StatusServiceUnavailable, apierror.New("Email delivery is not configured"))
		return
	}

	// Computing first validates the date and pins the organization
	actor := actorFrom(c)
	report, err := h.reports.ForActor(c.Request.Context(), actor, dto.ReportQuery{Date: req.Date})
	if err != nil {
		respondError(c, err)
		return
	}
	var org *string
	if actor.OrganizationID != nil {
		s := actor.OrganizationID.String()
		org = &s
	}
	err = h.queue.EnqueueReportEmail(c.Request.Context(), worker.ReportEmailPayload{
		To:             req.To,
		Date:           report.Date,
		OrganizationID: org,
		Title:          reportTitle,
	})
	if err != nil {
		if errors.Is(err, worker.ErrQueueUnavailable) {
			c.JSON(http.StatusServiceUnavailable, apierror.New("Job queue is unavailable"))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "queued": true, "date": report.Date})
}
