// Package mrz reads the machine-readable zone of a passport image.
//
// Locating and parsing the MRZ is delegated to an external
// PassportEye-compatible reader; this package only carries the reader's
// record across the process boundary. The reader's validity verdict and
// error report are passed through untouched, never recomputed.
package mrz

import (
	"context"
	"strings"
)

// Record is the structured MRZ read for one image.
type Record struct {
	Type           string
	Country        string
	Surname        string
	Names          string
	Number         string
	Nationality    string
	DateOfBirth    string
	Sex            string
	ExpirationDate string
	PersonalNumber string

	CheckNumber         string
	CheckDateOfBirth    string
	CheckExpirationDate string
	CheckPersonalNumber string
	CheckComposite      string

	Code   string   // raw MRZ text, lines joined with newlines
	Valid  bool     // the reader's own validity verdict
	Report []string // reader error report entries
}

// Lines returns the raw MRZ lines with surrounding whitespace removed.
func (r *Record) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Code, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Reader locates and parses the MRZ in a passport image.
//
// Read returns (nil, nil) when the image contains no readable MRZ; absence
// is not an error. A non-nil error means the capability itself failed.
type Reader interface {
	Read(ctx context.Context, imagePath string) (*Record, error)
}
