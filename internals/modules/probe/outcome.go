package probe

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/guregu/null/v5"
)

// Coarse failure classes recorded as an observation's error type.
const (
	ErrTimeout           = "TIMEOUT"
	ErrDNS               = "DNS_FAILURE"
	ErrConnRefused       = "CONNECTION_REFUSED"
	ErrConnReset         = "CONNECTION_RESET"
	ErrTLS               = "TLS_ERROR"
	ErrNetwork           = "NETWORK_ERROR"
	ErrTooManyRedirects  = "TOO_MANY_REDIRECTS"
	ErrHTTPStatus        = "HTTP_ERROR"
	ErrUnknown           = "UNKNOWN_ERROR"
	ErrInvalidRequest    = "INVALID_REQUEST"
	maxErrorMessageBytes = 1024
)

// Outcome is the result of one probe. StatusCode is set iff a response was
// received; ErrorMessage and ErrorType are set iff Success is false.
type Outcome struct {
	Success      bool
	StatusCode   null.Int
	ErrorMessage null.String
	ErrorType    null.String
	Elapsed      time.Duration
}

// Failed builds a failure outcome without a response.
func Failed(errType, msg string, elapsed time.Duration) Outcome {
	return Outcome{
		ErrorMessage: null.StringFrom(truncate(msg)),
		ErrorType:    null.StringFrom(errType),
		Elapsed:      elapsed,
	}
}

// truncate keeps messages storable in a TEXT column: valid UTF-8, no NUL
// bytes, cut on a rune boundary.
func truncate(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) <= maxErrorMessageBytes {
		return s
	}
	cut := maxErrorMessageBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
