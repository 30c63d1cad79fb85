package extract

import (
	"encoding/json"

	"github.com/docufield/passport-extract/internal/mrz"
)

// MRZ-derived confidence levels. The score reflects only whether the MRZ
// reader found a record and whether the reader judged it internally valid.
const (
	ConfidenceValid   = 0.95
	ConfidenceInvalid = 0.75
)

// CheckDigits carries the MRZ check digits as reported by the reader. They
// are passed through verbatim; this system never recomputes them.
type CheckDigits struct {
	Number         string `json:"number"`
	DateOfBirth    string `json:"dateOfBirth"`
	ExpiryDate     string `json:"expiryDate"`
	PersonalNumber string `json:"personalNumber"`
	Composite      string `json:"composite"`
}

// ExtractedData is the named-field view of the document. Fields the reader
// did not populate are omitted from the JSON document.
type ExtractedData struct {
	DocumentType   string       `json:"documentType,omitempty"`
	IssuingCountry string       `json:"issuingCountry,omitempty"`
	Surname        string       `json:"surname,omitempty"`
	GivenNames     string       `json:"givenNames,omitempty"`
	PassportNumber string       `json:"passportNumber,omitempty"`
	Nationality    string       `json:"nationality,omitempty"`
	DateOfBirth    string       `json:"dateOfBirth,omitempty"`
	Gender         string       `json:"gender,omitempty"`
	ExpiryDate     string       `json:"expiryDate,omitempty"`
	PersonalNumber string       `json:"personalNumber,omitempty"`
	CheckDigits    *CheckDigits `json:"checkDigits,omitempty"`
	IssueDate      string       `json:"issueDate,omitempty"`
}

// Candidate is one issue-date extraction attempt, kept for diagnostics even
// when no date was recovered from its sample.
type Candidate struct {
	Region string  `json:"region"`
	Text   string  `json:"text"`
	Date   *string `json:"date"`
}

// Validation mirrors the MRZ reader's verdict and error report.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Result is the extraction outcome for one image. Field order is fixed so
// identical inputs marshal to identical documents.
type Result struct {
	Success             bool          `json:"success"`
	Confidence          float64       `json:"confidence"`
	Valid               bool          `json:"valid"`
	RawText             string        `json:"raw_text"`
	ExtractedData       ExtractedData `json:"extracted_data"`
	IssueDate           *string       `json:"issue_date"`
	IssueDateCandidates []Candidate   `json:"issue_date_candidates"`
	MRZLines            []string      `json:"mrz_lines"`
	Validation          Validation    `json:"validation"`
	OCRError            *string       `json:"ocr_error,omitempty"`
	Error               string        `json:"error,omitempty"`
}

// JSON renders the result as the stable 2-space indented document emitted on
// stdout and stored in job history.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// NewFailure returns the error-shaped result used for capability failures
// and usage errors.
func NewFailure(message string) *Result {
	r := emptyResult()
	r.Error = message
	return r
}

// emptyResult builds a result with every collection present, so the JSON
// document always carries the same keys.
func emptyResult() *Result {
	return &Result{
		ExtractedData:       ExtractedData{},
		IssueDateCandidates: []Candidate{},
		MRZLines:            []string{},
		Validation:          Validation{Errors: []string{}},
	}
}

// baseResult seeds a result from the MRZ stage outcome. A nil record means
// no MRZ was ever recovered: success false, confidence zero, extraction of
// the issue date still proceeds.
func baseResult(rec *mrz.Record) *Result {
	res := emptyResult()
	if rec == nil {
		return res
	}

	res.Success = true
	res.Valid = rec.Valid
	if rec.Valid {
		res.Confidence = ConfidenceValid
	} else {
		res.Confidence = ConfidenceInvalid
	}
	res.RawText = rec.Code
	if lines := rec.Lines(); lines != nil {
		res.MRZLines = lines
	}
	res.Validation = Validation{Valid: rec.Valid, Errors: rec.Report}
	if res.Validation.Errors == nil {
		res.Validation.Errors = []string{}
	}
	res.ExtractedData = ExtractedData{
		DocumentType:   rec.Type,
		IssuingCountry: rec.Country,
		Surname:        rec.Surname,
		GivenNames:     rec.Names,
		PassportNumber: rec.Number,
		Nationality:    rec.Nationality,
		DateOfBirth:    rec.DateOfBirth,
		Gender:         rec.Sex,
		ExpiryDate:     rec.ExpirationDate,
		PersonalNumber: rec.PersonalNumber,
		CheckDigits: &CheckDigits{
			Number:         rec.CheckNumber,
			DateOfBirth:    rec.CheckDateOfBirth,
			ExpiryDate:     rec.CheckExpirationDate,
			PersonalNumber: rec.CheckPersonalNumber,
			Composite:      rec.CheckComposite,
		},
	}
	return res
}
