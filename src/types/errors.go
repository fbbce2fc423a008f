package types

import (
	"errors"
	"fmt"
	"strings"
)

type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("%s %d does not exist", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s does not exist", e.Resource)
}

type ValidationError struct {
	Field   string
	Row     int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

type DuplicateError struct {
	Constraint string
	Message    string
}

func (e *DuplicateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("duplicate value for %s", e.Constraint)
}

// RenderError marks a failed certificate render stage so the chain can move
// on to the next renderer.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s render failed: %s", e.Stage, e.Err.Error())
}
func (e *RenderError) Unwrap() error { return e.Err }

type SendError struct {
	RateLimited bool
	Err         error
}

func (e *SendError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("rate limited: %s", e.Err.Error())
	}
	return e.Err.Error()
}
func (e *SendError) Unwrap() error { return e.Err }

var rateLimitTerms = []string{"rate limit", "quota", "daily limit", "554", "421", "450"}

// IsRateLimitError reports whether err looks like a provider throttle
// response. Matching is on message text since SMTP errors surface as
// opaque strings.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var se *SendError
	if errors.As(err, &se) && se.RateLimited {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, term := range rateLimitTerms {
		if strings.Contains(msg, term) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}
