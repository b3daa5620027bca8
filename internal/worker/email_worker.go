package worker

// email_worker.go renders a daily stock report as XLSX and mails it.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stockbook/internal/dto"
	"stockbook/internal/infra"
	"stockbook/internal/model"
	"stockbook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportEmailPayload is the job body queued on QueueEmail.
type ReportEmailPayload struct {
	To             string    `json:"to"`
	Date           model.Day `json:"date"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Title          string    `json:"title"`
}

// MailSender is the part of infra.Mailer the worker needs.
type MailSender interface {
	Send(msg infra.Message) error
}

// ReportComputer is the part of service.ReportService the worker needs.
type ReportComputer interface {
	Compute(ctx context.Context, date model.Day, organizationID *uuid.UUID) (*dto.StockReportResponse, error)
}

var _ ReportComputer = service.ReportService(nil)

// ReportEmailWorker processes JobReportEmail jobs.
type ReportEmailWorker struct {
	reports ReportComputer
	mailer  MailSender
}

func NewReportEmailWorker(reports ReportComputer, mailer MailSender) *ReportEmailWorker {
	return &ReportEmailWorker{reports: reports, mailer: mailer}
}

func (w *ReportEmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p ReportEmailPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", ErrPermanent, err)
	}
	if strings.TrimSpace(p.To) == "" {
		return fmt.Errorf("%w: empty recipient", ErrPermanent)
	}
	var org *uuid.UUID
	if p.OrganizationID != nil {
		id, err := uuid.Parse(*p.OrganizationID)
		if err != nil {
			return fmt.Errorf("%w: invalid organization_id", ErrPermanent)
		}
		org = &id
	}

	report, err := w.reports.Compute(ctx, p.Date, org)
	if err != nil {
		return err
	}
	title := p.Title
	if title == "" {
		title = "Stock report"
	}
	file, err := infra.RenderReportXLSX(report, title)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrPermanent, err)
	}

	msg := infra.Message{
		To:      []string{p.To},
		Subject: fmt.Sprintf("%s %s", title, report.Date),
		Body:    reportSummary(report),
		Attachments: []infra.Attachment{{
			Name:        infra.ReportFileName(report, "xlsx"),
			ContentType: infra.ContentTypeXLSX,
			Data:        file,
		}},
	}
	if err := w.mailer.Send(msg); err != nil {
		if errors.Is(err, infra.ErrMailerDisabled) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}
	log.Info().Str("to", p.To).Str("date", report.Date.String()).Msg("email_worker: report sent")
	return nil
}

func reportSummary(r *dto.StockReportResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock report for %s (%d items).\n\n", r.Date, len(r.Report))
	for _, row := range r.Report {
		fmt.Fprintf(&b, "%s: opening %s, sold %s, closing %s %s\n",
			row.ItemName, row.OpeningStock, row.Sales, row.ClosingStock, row.ItemUnit)
	}
	return b.String()
}
