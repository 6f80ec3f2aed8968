package backend

import (
	"errors"
	"fmt"
)

// APIError is the structured error body the backend attaches to non-2xx
// responses.
type APIError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Describe splits any error into the name/message pair failure records
// carry. Structured backend errors keep their server-assigned name;
// everything else is filed under a generic name.
func Describe(err error) (name, message string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		name = apiErr.Name
		if name == "" {
			name = "Backend Error"
		}
		return name, apiErr.Message
	}
	return "Request Failed", err.Error()
}
