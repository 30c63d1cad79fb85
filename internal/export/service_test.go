package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/docufield/passport-extract/internal/entity"
)

type fakeJobs struct {
	jobs []*entity.Job
	err  error
	from time.Time
	to   time.Time
}

func (f *fakeJobs) Start(_ context.Context, _, _ string) (*entity.Job, error) { return nil, nil }

func (f *fakeJobs) FinishSuccess(_ context.Context, _ uuid.UUID, _ entity.JobResult) error {
	return nil
}

func (f *fakeJobs) FinishFailure(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeJobs) ListBetween(_ context.Context, from, to time.Time) ([]*entity.Job, error) {
	f.from, f.to = from, to
	return f.jobs, f.err
}

func strPtr(s string) *string { return &s }

func TestExportJobsXLSX(t *testing.T) {
	started := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	done := &entity.Job{
		ID:             uuid.New(),
		ImagePath:      "/scans/p1.png",
		Mode:           "regions",
		Status:         "DONE",
		StartedAt:      started,
		Success:        true,
		MRZValid:       true,
		Confidence:     0.95,
		PassportNumber: strPtr("110182398"),
		Surname:        strPtr("SMITH"),
		GivenNames:     strPtr("JOHN JACOB"),
		Nationality:    strPtr("GBR"),
		DateOfBirth:    strPtr("820101"),
		ExpiryDate:     strPtr("310101"),
		IssueDate:      strPtr("2022-09-03"),
	}
	failed := &entity.Job{
		ID:           uuid.New(),
		ImagePath:    "/scans/p2.png",
		Mode:         "regions",
		Status:       "FAILED",
		StartedAt:    started.Add(time.Minute),
		ErrorMessage: strPtr("mrz command not found"),
	}

	t.Run("workbook carries one row per job", func(t *testing.T) {
		repo := &fakeJobs{jobs: []*entity.Job{done, failed}}
		svc := NewService(repo, nil)

		b, err := svc.ExportJobsXLSX(context.Background(), nil, nil)
		require.NoError(t, err)

		wb, err := excelize.OpenReader(bytes.NewReader(b))
		require.NoError(t, err)
		defer wb.Close()

		const sheet = "Extractions"
		wantHeaders := []string{
			"Started At", "Image File", "Mode", "Status", "Passport Number",
			"Surname", "Given Names", "Nationality", "Birth Date", "Expiry Date",
			"Issue Date", "MRZ Valid", "Confidence", "Error",
		}
		for i, want := range wantHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			got, err := wb.GetCellValue(sheet, cell)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		for cell, want := range map[string]string{
			"A2": "2026-08-20 10:30:00",
			"B2": "/scans/p1.png",
			"C2": "regions",
			"D2": "DONE",
			"E2": "110182398",
			"F2": "SMITH",
			"G2": "JOHN JACOB",
			"H2": "GBR",
			"I2": "820101",
			"J2": "310101",
			"K2": "2022-09-03",
			"L2": "TRUE",
			"M2": "0.95",
			"B3": "/scans/p2.png",
			"D3": "FAILED",
			"L3": "FALSE",
			"N3": "mrz command not found",
		} {
			got, err := wb.GetCellValue(sheet, cell)
			require.NoError(t, err)
			assert.Equal(t, want, got, "cell %s", cell)
		}
	})

	t.Run("window normalizes to whole days", func(t *testing.T) {
		repo := &fakeJobs{}
		svc := NewService(repo, nil)

		from := time.Date(2026, 8, 10, 15, 30, 0, 0, time.UTC)
		to := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
		_, err := svc.ExportJobsXLSX(context.Background(), &from, &to)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), repo.from)
		assert.Equal(t, time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC), repo.to)
	})

	t.Run("open window covers everything recorded", func(t *testing.T) {
		repo := &fakeJobs{}
		svc := NewService(repo, nil)

		_, err := svc.ExportJobsXLSX(context.Background(), nil, nil)
		require.NoError(t, err)

		assert.True(t, repo.from.IsZero())
		assert.True(t, repo.to.After(time.Now().UTC()))
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		repo := &fakeJobs{err: context.DeadlineExceeded}
		svc := NewService(repo, nil)

		_, err := svc.ExportJobsXLSX(context.Background(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query jobs")
	})
}
