package integrations

import (
	"fmt"
	"unicode/utf8"
)

const maxErrorBody = 256

// StatusError is returned when the service answers with a status code other
// than the one the operation requires.
type StatusError struct {
	Op       string
	URL      string
	Expected int
	Actual   int
	Body     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: expected status %d, got %d", e.Op, e.Expected, e.Actual)
	if e.Body == "" {
		return msg
	}

	body := e.Body
	if len(body) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(body[n]) {
			n--
		}
		body = body[:n] + "..."
	}
	return fmt.Sprintf("%s: %s", msg, body)
}
