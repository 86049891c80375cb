package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrms/internal/domain/access"
	"hrms/internal/platform/changefeed"
)

type Service struct {
	store     StoreAPI
	policy    access.Checker
	publisher changefeed.Publisher
}

func NewService(store StoreAPI, policy access.Checker, publisher changefeed.Publisher) *Service {
	return &Service{store: store, policy: policy, publisher: publisher}
}

// Set overwrites the employee's record. The total is always recomputed from
// the components.
func (s *Service) Set(ctx context.Context, actor access.Actor, employeeID string, in Input) (Record, error) {
	if err := s.policy.Check(ctx, actor, access.EditPayroll, actor.Owns(employeeID)); err != nil {
		return Record{}, err
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return Record{}, ErrEmployeeID
	}
	total, err := ComputeTotal(in)
	if err != nil {
		return Record{}, err
	}
	saved, err := s.store.Upsert(ctx, Record{
		EmployeeID: employeeID,
		Basic:      in.Basic,
		DA:         in.DA,
		HRA:        in.HRA,
		Total:      total,
		UpdatedBy:  actor.AccountID,
	})
	if err != nil {
		return Record{}, fmt.Errorf("save payroll: %w", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(changefeed.Event{
			Collection: CollectionPayroll,
			DocumentID: saved.EmployeeID,
			Op:         changefeed.OpUpdate,
			Attrs:      map[string]string{"total": strconv.FormatFloat(saved.Total, 'f', 2, 64)},
		})
	}
	return saved, nil
}

// Get returns the record and whether one exists.
func (s *Service) Get(ctx context.Context, actor access.Actor, employeeID string) (Record, bool, error) {
	if err := s.policy.Check(ctx, actor, access.ViewPayroll, actor.Owns(employeeID)); err != nil {
		return Record{}, false, err
	}
	record, err := s.store.Get(ctx, employeeID)
	if errors.Is(err, ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor) ([]Listed, error) {
	if err := s.policy.Check(ctx, actor, access.ViewPayroll, false); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

// Payslip renders the monthly payslip for month as a PDF document.
func (s *Service) Payslip(ctx context.Context, actor access.Actor, employeeID string, month time.Time) ([]byte, error) {
	if err := s.policy.Check(ctx, actor, access.ViewPayroll, actor.Owns(employeeID)); err != nil {
		return nil, err
	}
	data, err := s.store.PayslipData(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return RenderPayslip(data, month)
}

func RenderPayslip(data PayslipData, month time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Month: %s", month.Format(payslipMonthLayout)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", data.EmployeeName, data.EmployeeCode))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Department: %s", data.Department))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Post: %s", data.Post))
	pdf.Ln(10)

	lines := []struct {
		label  string
		amount float64
	}{
		{"Basic", data.Basic},
		{"Dearness allowance", data.DA},
		{"House rent allowance", data.HRA},
	}
	for _, line := range lines {
		pdf.CellFormat(90, 8, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", line.amount), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(90, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", data.Total), "1", 1, "R", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Annual: %.2f", data.Annual()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
