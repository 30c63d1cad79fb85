// Package issuedate recovers a passport's date of issue from OCR text.
//
// The issue date is printed in the visual zone only, never encoded in the
// MRZ, so it has to be read from noisy OCR output. Scans corrupt the printed
// line in recurring ways ("03 SEP /SEPT 22" degrading into shapes like
// "O3SersseeT22" or "Gsseryserr22"), which is why matching runs as a cascade:
// standard date shapes first, then patterns for known corruption shapes, then
// a year-only last resort. Earlier patterns are authoritative; later ones are
// guesses that only apply when nothing better matched anywhere in the text.
package issuedate

// Match is one recovered issue date.
type Match struct {
	// Date is the recovered calendar date in YYYY-MM-DD form.
	Date string
	// Tier records which reliability class of pattern produced the date.
	Tier Tier
}

// FromText scans text with every catalog pattern in order and returns the
// first match that normalizes into a calendar date. All matches of a pattern
// are tried before moving to the next pattern; a match that fails
// normalization is skipped rather than treated as a partial success.
func FromText(text string) (Match, bool) {
	for _, p := range catalog {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			date, err := p.normalize(m[1:])
			if err != nil {
				continue
			}
			return Match{Date: date, Tier: p.tier}, true
		}
	}
	return Match{}, false
}
