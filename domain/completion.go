package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Completion is the stored completion flag. It is always 0 or 1.
type Completion int

const (
	Incomplete Completion = 0
	Complete   Completion = 1
)

// CompletionFromBool maps a boolean onto the stored representation.
func CompletionFromBool(done bool) Completion {
	if done {
		return Complete
	}
	return Incomplete
}

// ParseCompletion canonicalizes booleans, numbers and truthy strings to 0/1.
// Nil is treated as incomplete.
func ParseCompletion(value interface{}) (Completion, error) {
	switch v := value.(type) {
	case nil:
		return Incomplete, nil
	case bool:
		return CompletionFromBool(v), nil
	case Completion:
		return CompletionFromBool(v != Incomplete), nil
	case int:
		return CompletionFromBool(v != 0), nil
	case int64:
		return CompletionFromBool(v != 0), nil
	case float64:
		if math.IsNaN(v) {
			return Incomplete, ErrInvalidCompletion
		}
		return CompletionFromBool(v != 0), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Incomplete, ErrInvalidCompletion
		}
		return CompletionFromBool(f != 0), nil
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		switch s {
		case "", "no", "off":
			return Incomplete, nil
		case "yes", "on":
			return Complete, nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return CompletionFromBool(b), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return CompletionFromBool(f != 0), nil
		}
		return Incomplete, ErrInvalidCompletion
	default:
		return Incomplete, ErrInvalidCompletion
	}
}

// UnmarshalJSON accepts any of the inputs understood by ParseCompletion.
func (c *Completion) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidCompletion
	}
	parsed, err := ParseCompletion(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
