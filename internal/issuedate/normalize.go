package issuedate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// monthsByAbbr maps 3-letter English month abbreviations to calendar numbers.
var monthsByAbbr = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04",
	"MAY": "05", "JUN": "06", "JUL": "07", "AUG": "08",
	"SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

// normalize assembles a YYYY-MM-DD date from raw captured parts.
//
// Day: a leading O/o misread for digit 0 is corrected, then the day is
// left-padded to two digits. Month: resolved through the abbreviation table
// unless September is assumed; an unrecognized abbreviation fails the match
// so the cascade can move on. Year: four digits pass through unchanged; two
// digits are windowed uniformly, <=50 landing in 20xx and >=51 in 19xx,
// regardless of which document field the date belongs to; any other length
// fails.
func normalize(day, month, year string, assumeSeptember bool) (string, error) {
	if day == "" || year == "" {
		return "", errors.New("missing date parts")
	}

	if day[0] == 'O' || day[0] == 'o' {
		day = "0" + day[1:]
	}
	if len(day) == 1 {
		day = "0" + day
	}

	mm := "09"
	if !assumeSeptember {
		var ok bool
		mm, ok = monthsByAbbr[strings.ToUpper(month)]
		if !ok {
			return "", fmt.Errorf("unknown month abbreviation %q", month)
		}
	}

	switch len(year) {
	case 4:
	case 2:
		n, err := strconv.Atoi(year)
		if err != nil {
			return "", fmt.Errorf("malformed year %q", year)
		}
		if n <= 50 {
			year = "20" + year
		} else {
			year = "19" + year
		}
	default:
		return "", fmt.Errorf("malformed year %q", year)
	}

	return fmt.Sprintf("%s-%s-%s", year, mm, day), nil
}
