package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docufield/passport-extract/constants"
	"github.com/docufield/passport-extract/internal/common"
	"github.com/docufield/passport-extract/internal/entity"
)

type JobRepository interface {
	Start(ctx context.Context, imagePath, mode string) (*entity.Job, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, res entity.JobResult) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	ListBetween(ctx context.Context, from, to time.Time) ([]*entity.Job, error)
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewJobRepository(db *DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log}
}

func (r *jobRepo) Start(ctx context.Context, imagePath, mode string) (*entity.Job, error) {
	job := &entity.Job{
		ID:        uuid.New(),
		ImagePath: imagePath,
		Mode:      mode,
		Status:    string(constants.JobStatusRunning),
		StartedAt: time.Now().UTC(),
	}
	const q = `INSERT INTO extract_jobs (id, image_path, mode, status, started_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.rebind(q),
		job.ID, job.ImagePath, job.Mode, job.Status, job.StartedAt)
	if err != nil {
		r.log.Error("extract_job start failed", "image_path", imagePath, "err", err)
		return nil, err
	}
	r.log.Info("extract_job started", "job_id", job.ID, "image_path", imagePath, "mode", mode)
	return job, nil
}

func (r *jobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, res entity.JobResult) error {
	const q = `UPDATE extract_jobs
		SET status = ?, finished_at = ?, success = ?, mrz_valid = ?, confidence = ?,
		    passport_number = ?, surname = ?, given_names = ?, nationality = ?,
		    date_of_birth = ?, expiry_date = ?, issue_date = ?, result_json = ?
		WHERE id = ?`
	tag, err := r.db.ExecContext(ctx, r.db.rebind(q),
		string(constants.JobStatusDone), time.Now().UTC(), res.Success, res.MRZValid, res.Confidence,
		nullString(res.PassportNumber), nullString(res.Surname), nullString(res.GivenNames),
		nullString(res.Nationality), nullString(res.DateOfBirth), nullString(res.ExpiryDate),
		res.IssueDate, jsonText(res.ResultJSON), jobID)
	if err != nil {
		r.log.Error("extract_job finish(DONE) failed", "job_id", jobID, "err", err)
		return err
	}
	if n, raErr := tag.RowsAffected(); raErr == nil && n == 0 {
		r.log.Warn("extract_job finish(DONE) matched no row", "job_id", jobID)
		return common.ErrNotFound
	}
	r.log.Info("extract_job finished (DONE)", "job_id", jobID, "success", res.Success, "confidence", res.Confidence)
	return nil
}

func (r *jobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	const q = `UPDATE extract_jobs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`
	tag, err := r.db.ExecContext(ctx, r.db.rebind(q),
		string(constants.JobStatusFailed), time.Now().UTC(), message, jobID)
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	if n, raErr := tag.RowsAffected(); raErr == nil && n == 0 {
		r.log.Warn("extract_job finish(FAILED) matched no row", "job_id", jobID)
		return common.ErrNotFound
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

const jobColumns = `id, image_path, mode, status, started_at, finished_at,
	success, mrz_valid, confidence,
	passport_number, surname, given_names, nationality,
	date_of_birth, expiry_date, issue_date,
	error_message, result_json`

func (r *jobRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*entity.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM extract_jobs
		WHERE started_at >= ? AND started_at < ?
		ORDER BY started_at`
	rows, err := r.db.QueryContext(ctx, r.db.rebind(q), from.UTC(), to.UTC())
	if err != nil {
		r.log.Error("extract_job list failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(rows *sql.Rows) (*entity.Job, error) {
	var (
		job        entity.Job
		resultJSON sql.NullString
	)
	if err := rows.Scan(
		&job.ID, &job.ImagePath, &job.Mode, &job.Status, &job.StartedAt, &job.FinishedAt,
		&job.Success, &job.MRZValid, &job.Confidence,
		&job.PassportNumber, &job.Surname, &job.GivenNames, &job.Nationality,
		&job.DateOfBirth, &job.ExpiryDate, &job.IssueDate,
		&job.ErrorMessage, &resultJSON,
	); err != nil {
		return nil, err
	}
	if resultJSON.Valid {
		job.ResultJSON = json.RawMessage(resultJSON.String)
	}
	return &job, nil
}

// CountJobs reports how many rows extract_jobs holds.
func CountJobs(ctx context.Context, db *DB) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extract_jobs`).Scan(&n)
	return n, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// jsonText stores raw JSON as TEXT so both drivers take the same value.
func jsonText(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
