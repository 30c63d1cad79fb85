package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/passport-extract/internal/common"
	"github.com/docufield/passport-extract/internal/entity"
)

func setupJobRepo(t *testing.T) JobRepository {
	t.Helper()
	ctx := context.Background()
	cfg := Config{
		DSN:         filepath.Join(t.TempDir(), "jobs.db"),
		MaxConns:    2,
		DialTimeout: 5 * time.Second,
	}
	db, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, Migrate(ctx, db, nil))
	return NewJobRepository(db, nil)
}

func strPtr(s string) *string { return &s }

func TestJobLifecycle(t *testing.T) {
	t.Run("start records a running job", func(t *testing.T) {
		t.Parallel()
		repo := setupJobRepo(t)
		ctx := context.Background()

		job, err := repo.Start(ctx, "/scans/p1.png", "regions")
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, job.ID)

		jobs, err := repo.ListBetween(ctx, job.StartedAt.Add(-time.Minute), job.StartedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		stored := jobs[0]
		assert.Equal(t, job.ID, stored.ID)
		assert.Equal(t, "/scans/p1.png", stored.ImagePath)
		assert.Equal(t, "regions", stored.Mode)
		assert.Equal(t, "RUNNING", stored.Status)
		assert.WithinDuration(t, job.StartedAt, stored.StartedAt, time.Second)
		assert.Nil(t, stored.FinishedAt)
		assert.False(t, stored.Success)
	})

	t.Run("finish success writes the extraction summary", func(t *testing.T) {
		t.Parallel()
		repo := setupJobRepo(t)
		ctx := context.Background()

		job, err := repo.Start(ctx, "/scans/p2.png", "regions")
		require.NoError(t, err)

		res := entity.JobResult{
			Success:        true,
			MRZValid:       true,
			Confidence:     0.95,
			PassportNumber: "110182398",
			Surname:        "SMITH",
			GivenNames:     "JOHN JACOB",
			Nationality:    "GBR",
			DateOfBirth:    "820101",
			ExpiryDate:     "310101",
			IssueDate:      strPtr("2022-09-03"),
			ResultJSON:     []byte(`{"success":true,"confidence":0.95}`),
		}
		require.NoError(t, repo.FinishSuccess(ctx, job.ID, res))

		jobs, err := repo.ListBetween(ctx, job.StartedAt.Add(-time.Minute), job.StartedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		stored := jobs[0]
		assert.Equal(t, "DONE", stored.Status)
		require.NotNil(t, stored.FinishedAt)
		assert.True(t, stored.Success)
		assert.True(t, stored.MRZValid)
		assert.InDelta(t, 0.95, stored.Confidence, 1e-9)
		require.NotNil(t, stored.PassportNumber)
		assert.Equal(t, "110182398", *stored.PassportNumber)
		require.NotNil(t, stored.Surname)
		assert.Equal(t, "SMITH", *stored.Surname)
		require.NotNil(t, stored.IssueDate)
		assert.Equal(t, "2022-09-03", *stored.IssueDate)
		assert.Nil(t, stored.ErrorMessage)
		assert.JSONEq(t, `{"success":true,"confidence":0.95}`, string(stored.ResultJSON))
	})

	t.Run("empty summary fields stay null", func(t *testing.T) {
		t.Parallel()
		repo := setupJobRepo(t)
		ctx := context.Background()

		job, err := repo.Start(ctx, "/scans/p3.png", "full")
		require.NoError(t, err)
		require.NoError(t, repo.FinishSuccess(ctx, job.ID, entity.JobResult{Success: false}))

		jobs, err := repo.ListBetween(ctx, job.StartedAt.Add(-time.Minute), job.StartedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		stored := jobs[0]
		assert.Equal(t, "DONE", stored.Status)
		assert.Nil(t, stored.PassportNumber)
		assert.Nil(t, stored.IssueDate)
		assert.Nil(t, stored.ResultJSON)
	})

	t.Run("finish failure records the message", func(t *testing.T) {
		t.Parallel()
		repo := setupJobRepo(t)
		ctx := context.Background()

		job, err := repo.Start(ctx, "/scans/p4.png", "regions")
		require.NoError(t, err)
		require.NoError(t, repo.FinishFailure(ctx, job.ID, "mrz command not found"))

		jobs, err := repo.ListBetween(ctx, job.StartedAt.Add(-time.Minute), job.StartedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		stored := jobs[0]
		assert.Equal(t, "FAILED", stored.Status)
		require.NotNil(t, stored.FinishedAt)
		require.NotNil(t, stored.ErrorMessage)
		assert.Equal(t, "mrz command not found", *stored.ErrorMessage)
		assert.False(t, stored.Success)
	})

	t.Run("finishing an unknown job reports not found", func(t *testing.T) {
		t.Parallel()
		repo := setupJobRepo(t)
		ctx := context.Background()

		err := repo.FinishFailure(ctx, uuid.New(), "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
		err = repo.FinishSuccess(ctx, uuid.New(), entity.JobResult{})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("list filters by start window in order", func(t *testing.T) {
		t.Parallel()
		repo := setupJobRepo(t)
		ctx := context.Background()

		first, err := repo.Start(ctx, "/scans/a.png", "regions")
		require.NoError(t, err)
		// Insert timestamps must differ for the ordering assertion.
		time.Sleep(20 * time.Millisecond)
		_, err = repo.Start(ctx, "/scans/b.png", "regions")
		require.NoError(t, err)

		jobs, err := repo.ListBetween(ctx, first.StartedAt.Add(-time.Minute), first.StartedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "/scans/a.png", jobs[0].ImagePath)
		assert.Equal(t, "/scans/b.png", jobs[1].ImagePath)

		empty, err := repo.ListBetween(ctx, first.StartedAt.Add(time.Hour), first.StartedAt.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DSN: filepath.Join(t.TempDir(), "jobs.db"), MaxConns: 1, DialTimeout: 5 * time.Second}
	db, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer Close(db, nil)

	require.NoError(t, Migrate(ctx, db, nil))
	require.NoError(t, Migrate(ctx, db, nil))
}

func TestCountJobs(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DSN: filepath.Join(t.TempDir(), "jobs.db"), MaxConns: 1, DialTimeout: 5 * time.Second}
	db, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer Close(db, nil)
	require.NoError(t, Migrate(ctx, db, nil))

	n, err := CountJobs(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)

	repo := NewJobRepository(db, nil)
	_, err = repo.Start(ctx, "/scans/p1.png", "regions")
	require.NoError(t, err)
	_, err = repo.Start(ctx, "/scans/p2.png", "regions")
	require.NoError(t, err)

	n, err = CountJobs(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DSN: ":memory:", MaxConns: 1, DialTimeout: 5 * time.Second}
	db, err := Open(ctx, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, HealthCheck(ctx, db, time.Second, nil))

	Close(db, nil)
	require.Error(t, HealthCheck(ctx, db, time.Second, nil))
}

func TestRebind(t *testing.T) {
	t.Run("postgres numbers the placeholders", func(t *testing.T) {
		d := &DB{driver: driverPostgres}
		got := d.rebind(`INSERT INTO t (a, b, c) VALUES (?, ?, ?)`)
		assert.Equal(t, `INSERT INTO t (a, b, c) VALUES ($1, $2, $3)`, got)
	})
	t.Run("sqlite keeps question marks", func(t *testing.T) {
		d := &DB{driver: driverSQLite}
		q := `UPDATE t SET a = ? WHERE id = ?`
		assert.Equal(t, q, d.rebind(q))
	})
}

func TestBuildSQLiteDSN(t *testing.T) {
	t.Run("file path gains pragmas", func(t *testing.T) {
		d := buildSQLiteDSN("/tmp/jobs.db")
		assert.Contains(t, d, "file:/tmp/jobs.db")
		assert.Contains(t, d, "_pragma=journal_mode(WAL)")
		assert.Contains(t, d, "_pragma=busy_timeout(5000)")
	})
	t.Run("memory uses shared cache", func(t *testing.T) {
		assert.Contains(t, buildSQLiteDSN(":memory:"), "file::memory:?cache=shared")
	})
	t.Run("explicit uri passes through", func(t *testing.T) {
		assert.Equal(t, "file:x.db?mode=ro", buildSQLiteDSN("file:x.db?mode=ro"))
	})
}
