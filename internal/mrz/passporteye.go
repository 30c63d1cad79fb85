package mrz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// wireRecord is the JSON document a PassportEye-compatible reader prints,
// keyed the way PassportEye's to_dict serializes an MRZ. Validity arrives
// either as an explicit flag or as a 0-100 score, depending on the reader
// build.
type wireRecord struct {
	Type                string   `json:"type"`
	Country             string   `json:"country"`
	Surname             string   `json:"surname"`
	Names               string   `json:"names"`
	Number              string   `json:"number"`
	Nationality         string   `json:"nationality"`
	DateOfBirth         string   `json:"date_of_birth"`
	Sex                 string   `json:"sex"`
	ExpirationDate      string   `json:"expiration_date"`
	PersonalNumber      string   `json:"personal_number"`
	CheckNumber         string   `json:"check_number"`
	CheckDateOfBirth    string   `json:"check_date_of_birth"`
	CheckExpirationDate string   `json:"check_expiration_date"`
	CheckPersonalNumber string   `json:"check_personal_number"`
	CheckComposite      string   `json:"check_composite"`
	MRZCode             string   `json:"mrz_code"`
	Valid               *bool    `json:"valid"`
	ValidScore          int      `json:"valid_score"`
	Report              []string `json:"report"`
}

func (w *wireRecord) toRecord() *Record {
	valid := w.ValidScore == 100
	if w.Valid != nil {
		valid = *w.Valid
	}
	return &Record{
		Type:                w.Type,
		Country:             w.Country,
		Surname:             w.Surname,
		Names:               w.Names,
		Number:              w.Number,
		Nationality:         w.Nationality,
		DateOfBirth:         w.DateOfBirth,
		Sex:                 w.Sex,
		ExpirationDate:      w.ExpirationDate,
		PersonalNumber:      w.PersonalNumber,
		CheckNumber:         w.CheckNumber,
		CheckDateOfBirth:    w.CheckDateOfBirth,
		CheckExpirationDate: w.CheckExpirationDate,
		CheckPersonalNumber: w.CheckPersonalNumber,
		CheckComposite:      w.CheckComposite,
		Code:                w.MRZCode,
		Valid:               valid,
		Report:              w.Report,
	}
}

// Runner lets us stub the external reader command in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// PassportEyeReader shells out to a PassportEye-compatible command.
//
// Contract: the command receives the image path as its final argument, exits
// zero and prints one JSON document on stdout when it ran; absence of an MRZ
// is an empty document or a JSON null. A non-zero exit means the capability
// failed.
type PassportEyeReader struct {
	command []string
	timeout time.Duration
	runner  Runner
	logger  *slog.Logger
}

// NewPassportEyeReader builds a reader around the given command line
// (program plus fixed arguments, e.g. "mrz --json").
func NewPassportEyeReader(command string, timeout time.Duration, logger *slog.Logger) *PassportEyeReader {
	if command == "" {
		command = "mrz --json"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PassportEyeReader{
		command: strings.Fields(command),
		timeout: timeout,
		runner:  execRunner{},
		logger:  logger,
	}
}

func (r *PassportEyeReader) Read(ctx context.Context, imagePath string) (*Record, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.command[1:]...), imagePath)
	stdout, stderr, err := r.runner.Run(ctx, r.command[0], args...)
	if err != nil {
		return nil, fmt.Errorf("mrz reader: %w: %s", err, truncate(string(stderr), 2<<10))
	}

	doc := bytes.TrimSpace(stdout)
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		r.logger.Debug("no mrz found", "path", imagePath)
		return nil, nil
	}

	var w wireRecord
	if err := json.Unmarshal(doc, &w); err != nil {
		return nil, fmt.Errorf("decode mrz reader output: %w", err)
	}
	return w.toRecord(), nil
}
