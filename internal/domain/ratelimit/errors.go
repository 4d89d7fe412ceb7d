package ratelimit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

var ErrLimited = errors.New("rate limit exceeded")

// LimitedError is returned by Enforce when a request is refused.
type LimitedError struct {
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string { return ErrLimited.Error() }

func (e *LimitedError) Is(target error) bool { return target == ErrLimited }

// Seconds rounds RetryAfter up to whole seconds, at least one.
func (e *LimitedError) Seconds() int {
	s := int((e.RetryAfter + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// HTTPError converts a refusal into a 429 with a Retry-After header. It
// returns nil when err is not a refusal.
func HTTPError(c echo.Context, err error, message string) *echo.HTTPError {
	var le *LimitedError
	if !errors.As(err, &le) {
		return nil
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(le.Seconds()))
	return echo.NewHTTPError(http.StatusTooManyRequests, message)
}
