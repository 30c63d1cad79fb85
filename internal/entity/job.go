package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job represents one extraction run for data transfer between layers.
type Job struct {
	ID             uuid.UUID       `json:"id"`
	ImagePath      string          `json:"image_path"`
	Mode           string          `json:"mode"`
	Status         string          `json:"status"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	Success        bool            `json:"success"`
	MRZValid       bool            `json:"mrz_valid"`
	Confidence     float64         `json:"confidence"`
	PassportNumber *string         `json:"passport_number,omitempty"`
	Surname        *string         `json:"surname,omitempty"`
	GivenNames     *string         `json:"given_names,omitempty"`
	Nationality    *string         `json:"nationality,omitempty"`
	DateOfBirth    *string         `json:"date_of_birth,omitempty"`
	ExpiryDate     *string         `json:"expiry_date,omitempty"`
	IssueDate      *string         `json:"issue_date,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	ResultJSON     json.RawMessage `json:"result_json,omitempty"`
}

// JobResult carries the outcome written back to a job row when an
// extraction run finishes without a hard failure.
type JobResult struct {
	Success        bool
	MRZValid       bool
	Confidence     float64
	PassportNumber string
	Surname        string
	GivenNames     string
	Nationality    string
	DateOfBirth    string
	ExpiryDate     string
	IssueDate      *string
	ResultJSON     json.RawMessage
}
