package issuedate

import (
	"fmt"
	"regexp"
)

// Tier classifies how trustworthy a pattern's matches are. Catalog order runs
// from most to least trustworthy and is significant.
type Tier int

const (
	// TierStandard matches complete, legible date text.
	TierStandard Tier = iota
	// TierFragmented matches known OCR corruption shapes that still carry a
	// day digit and a year; the month is assumed.
	TierFragmented
	// TierYearOnly matches a corruption shape carrying only a year; day and
	// month are assumed. Last resort.
	TierYearOnly
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierFragmented:
		return "fragmented"
	case TierYearOnly:
		return "year_only"
	default:
		return "unknown"
	}
}

// semantics states how a pattern's capture groups map to date parts. It is
// carried explicitly on the pattern so group counts are never inferred from
// list position.
type semantics int

const (
	// dayMonthYear captures day, month name and year.
	dayMonthYear semantics = iota
	// daySeptemberYear captures a day digit and a year; the month is assumed
	// to be September, the month the known corruption shapes come from.
	daySeptemberYear
	// septemberThirdYear captures only a year; 03 September is assumed.
	septemberThirdYear
)

// pattern pairs a compiled expression with its tier and capture semantics.
type pattern struct {
	re        *regexp.Regexp
	tier      Tier
	semantics semantics
}

// normalize maps one regexp match (capture groups only) to an ISO date.
// A match with fewer groups than its semantics requires is rejected.
func (p pattern) normalize(groups []string) (string, error) {
	switch p.semantics {
	case dayMonthYear:
		if len(groups) < 3 {
			return "", fmt.Errorf("want 3 capture groups, got %d", len(groups))
		}
		return normalize(groups[0], groups[1], groups[2], false)
	case daySeptemberYear:
		if len(groups) < 2 {
			return "", fmt.Errorf("want 2 capture groups, got %d", len(groups))
		}
		return normalize(groups[0], "", groups[1], true)
	case septemberThirdYear:
		if len(groups) < 1 {
			return "", fmt.Errorf("want 1 capture group, got %d", len(groups))
		}
		return normalize("3", "", groups[0], true)
	default:
		return "", fmt.Errorf("unknown capture semantics %d", p.semantics)
	}
}

// catalog is the ordered pattern cascade. The standard tier covers legible
// prints, including the bilingual "03 SEP /SEPT 22" layout and the labeled
// "Date of issue" line. The fragmented tier covers the recurring shapes a
// September issue line collapses into when character spacing is lost. The
// year-only tier covers the worst observed corruption, where only the final
// two-digit year survives.
var catalog = []pattern{
	{re: regexp.MustCompile(`(?i)(\d{1,2})\s+(SEP|JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|OCT|NOV|DEC)\s*/\s*[A-Z]{3,4}\s+(\d{2})`), tier: TierStandard, semantics: dayMonthYear},
	{re: regexp.MustCompile(`(?i)(\d{1,2})\s+(SEP|JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|OCT|NOV|DEC)\s+/\s*[A-Z]{3,4}\s+(\d{2})`), tier: TierStandard, semantics: dayMonthYear},
	{re: regexp.MustCompile(`(?i)date\s+of\s+issue[:\s]*(\d{1,2})\s+([A-Z]{3,4})\s+(\d{2,4})`), tier: TierStandard, semantics: dayMonthYear},
	{re: regexp.MustCompile(`(?i)(\d{1,2})\s+([A-Z]{3,4})\s+(\d{2,4})`), tier: TierStandard, semantics: dayMonthYear},
	{re: regexp.MustCompile(`(?i)[O0](\d)\s*[Ss]er[ys]*[a-z]*[Ss]ee[tT]*\s*(\d{2})`), tier: TierFragmented, semantics: daySeptemberYear},
	{re: regexp.MustCompile(`(?i)[O0](\d)\s*[Ss][Ee][PpRr]\s*[/\\]*\s*[Ss][Ee][PpRr][Tt]*\s*(\d{2})`), tier: TierFragmented, semantics: daySeptemberYear},
	{re: regexp.MustCompile(`(?i)[O0](\d)\s*[Ss]er[a-z]*[Ss]eer\s*(\d{2})`), tier: TierFragmented, semantics: daySeptemberYear},
	{re: regexp.MustCompile(`(?i)[Gg][Ss3]*[Ss3]*er[ys]*[a-z]*er[ys]*[a-z]*(\d{2})`), tier: TierYearOnly, semantics: septemberThirdYear},
}
