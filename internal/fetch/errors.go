package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signalsdr-engine/internal/domain"
)

type ErrorKind string

const (
	KindUnreachable ErrorKind = "unreachable"
	KindHTTPError   ErrorKind = "http_error"
	KindTimeout     ErrorKind = "timeout"
	KindEmptyBody   ErrorKind = "empty_body"
	KindRateLimited ErrorKind = "rate_limited"
	KindDecode      ErrorKind = "decode"
)

// Error is returned by FetchText for every failure. It matches
// domain.ErrRateLimited for throttling responses and domain.ErrFetchFailure
// otherwise.
type Error struct {
	Kind       ErrorKind
	URL        string
	Status     int
	RetryAfter time.Duration // set for rate_limited when the server sent Retry-After
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("fetch ")
	b.WriteString(e.URL)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrRateLimited:
		return e.Kind == KindRateLimited
	case domain.ErrFetchFailure:
		return true
	}
	return false
}

// IsRateLimited reports whether err is a throttling response and, if so,
// how long the server asked us to wait (zero when unspecified).
func IsRateLimited(err error) (time.Duration, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == KindRateLimited {
		return fe.RetryAfter, true
	}
	return 0, false
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
