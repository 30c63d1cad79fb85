package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docufield/passport-extract/internal/repository"
)

// Service is a tiny façade over the job repository that produces XLSX bytes
// for extraction history exports.
type Service struct {
	jobsRepo repository.JobRepository
	logger   *slog.Logger
}

func NewService(repo repository.JobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobsRepo: repo, logger: logger}
}

// ExportJobsXLSX returns an XLSX workbook (as bytes) for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every recorded job.
func (s *Service) ExportJobsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC). ListBetween takes a half-open
	// window, so the upper bound is the day after the requested end.
	lower := time.Time{}
	if from != nil {
		lower = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	}
	end := time.Now().UTC()
	if to != nil {
		end = *to
	}
	upper := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

	jobs, err := s.jobsRepo.ListBetween(ctx, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Started At",
		"Image File",
		"Mode",
		"Status",
		"Passport Number",
		"Surname",
		"Given Names",
		"Nationality",
		"Birth Date",
		"Expiry Date",
		"Issue Date",
		"MRZ Valid",
		"Confidence",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, j.StartedAt.Format("2006-01-02 15:04:05"))
		write(2, j.ImagePath)
		write(3, j.Mode)
		write(4, j.Status)
		write(5, orEmpty(j.PassportNumber))
		write(6, orEmpty(j.Surname))
		write(7, orEmpty(j.GivenNames))
		write(8, orEmpty(j.Nationality))
		write(9, orEmpty(j.DateOfBirth))
		write(10, orEmpty(j.ExpiryDate))
		write(11, orEmpty(j.IssueDate))
		write(12, j.MRZValid)
		write(13, j.Confidence)
		write(14, truncate(orEmpty(j.ErrorMessage), 140))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 20) // started at
	_ = f.SetColWidth(sheet, "B", "B", 56) // image path
	_ = f.SetColWidth(sheet, "C", "D", 10) // mode, status
	_ = f.SetColWidth(sheet, "E", "E", 16) // passport number
	_ = f.SetColWidth(sheet, "F", "G", 22) // names
	_ = f.SetColWidth(sheet, "H", "K", 12) // nationality, dates
	_ = f.SetColWidth(sheet, "L", "M", 11) // validity, confidence
	_ = f.SetColWidth(sheet, "N", "N", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func orEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
