package extract

import (
	"log/slog"
	"strings"

	"github.com/docufield/passport-extract/internal/issuedate"
	"github.com/docufield/passport-extract/internal/ocr"
)

// maxExcerpt caps the sample text carried into a candidate's diagnostics.
const maxExcerpt = 200

// candidatesFromSamples runs the date cascade over each sample. Every sample
// contributes a candidate; samples without a recoverable date keep a nil date
// and serve as diagnostics only.
func candidatesFromSamples(samples []ocr.Sample, logger *slog.Logger) []Candidate {
	out := make([]Candidate, 0, len(samples))
	for _, s := range samples {
		c := Candidate{Region: s.Label, Text: excerpt(s.Text)}
		if m, ok := issuedate.FromText(s.Text); ok {
			date := m.Date
			c.Date = &date
			logger.Debug("issue date candidate",
				"region", s.Label,
				"tier", m.Tier.String(),
				"date", m.Date,
			)
		}
		out = append(out, c)
	}
	return out
}

// arbitrate picks the winning candidate among those carrying a date: the
// upper_middle region wins when present, otherwise the first candidate in
// sample-generation order. The preference is positional, not scored; when
// regions disagree the fixed order decides.
func arbitrate(candidates []Candidate) *Candidate {
	var first *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Date == nil {
			continue
		}
		if c.Region == ocr.LabelUpperMiddle {
			return c
		}
		if first == nil {
			first = c
		}
	}
	return first
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxExcerpt {
		return string(runes[:maxExcerpt])
	}
	return text
}
