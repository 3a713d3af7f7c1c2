package transport

import "encoding/json"

// ErrorBody is the JSON shape of every failed API response.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewError returns an error body carrying message.
func NewError(message string) ErrorBody {
	return ErrorBody{Error: message}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorBody) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
