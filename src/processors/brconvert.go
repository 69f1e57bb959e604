package processors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/lavametrics/backend/src/utils"
)

// Timestamp layouts produced by the POS export, most specific first.
// Two-digit years resolve to 20xx for contemporary values.
var brDateTimeLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02/01/06 15:04:05",
	"02/01/06 15:04",
	"02/01/06",
}

// ParseBRDateTime parses a Brazilian "DD/MM/YYYY HH:MM:SS" timestamp in the
// given location. The clock part is optional and defaults to midnight.
func ParseBRDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range brDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// ParseBRNumber parses a Brazilian decimal string. Three shapes are accepted:
// "1.234,56" (thousands plus decimal), "17,90" (decimal comma only) and the
// already-canonical "1234.56". Empty input yields zero; anything else
// unparseable is an error. The result is rounded to two decimals.
func ParseBRNumber(value string) (float64, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return 0, nil
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", value)
	}
	return utils.Round2(f), nil
}

// NormalizeCPF reduces a customer document to its canonical 11-digit form:
// punctuation stripped, short values left-padded with zeros, overlong values
// trimmed to the last 11 digits. Empty and all-zero documents normalize to
// "", the "no identified customer" sentinel.
func NormalizeCPF(doc string) string {
	var digits strings.Builder
	allZero := true
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if r != '0' {
				allZero = false
			}
		}
	}
	d := digits.String()
	if d == "" || allZero {
		return ""
	}
	if len(d) > 11 {
		d = d[len(d)-11:]
	}
	for len(d) < 11 {
		d = "0" + d
	}
	return d
}

// CountMachines counts wash and dry units in the free-text machine field.
// Each comma-separated token is matched case-insensitively against the
// machine-type keywords; unrecognized tokens are ignored.
func CountMachines(machines string) (washUnits, dryUnits int) {
	if machines == "" {
		return 0, 0
	}
	for _, token := range strings.Split(strings.ToLower(machines), ",") {
		if strings.Contains(token, "lavadora") {
			washUnits++
		}
		if strings.Contains(token, "secadora") {
			dryUnits++
		}
	}
	return washUnits, dryUnits
}
