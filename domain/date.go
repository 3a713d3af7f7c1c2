package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical due date format.
const DateLayout = "2006-01-02"

var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate returns value in YYYY-MM-DD form. Canonical input is returned
// unchanged; anything else is parsed in the local time zone and formatted from
// its local calendar fields. An empty value stays empty.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if canonicalDate.MatchString(value) {
		return value, nil
	}

	parsed, err := dateparse.ParseLocal(value)
	if err != nil {
		return "", WrapError(ErrCodeInvalid, ErrInvalidDueDate.Message, err)
	}
	local := parsed.In(time.Local)
	return fmt.Sprintf("%04d-%02d-%02d", local.Year(), int(local.Month()), local.Day()), nil
}
