// Package providers holds the shared error vocabulary of the external service
// adapters (lyrics model, song generator, email delivery). Each adapter lives
// in its own subpackage and reports failures as *AdapterError so the workflow
// can log provider detail while clients only see a generic message.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTimeout marks a call that exceeded its deadline before the provider answered.
	ErrTimeout = errors.New("provider timeout")
	// ErrGeneration marks a model response without usable content.
	ErrGeneration = errors.New("generation failed")
	// ErrDelivery marks an email the provider refused to send.
	ErrDelivery = errors.New("delivery failed")
)

// AdapterError describes a failed provider call.
type AdapterError struct {
	Provider   string
	Op         string
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *AdapterError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Provider, e.Op)
	if e.Timeout {
		b.WriteString(": timeout")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", truncate(body, 512))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTimeout) match timeouts that were classified from
// a transport error rather than wrapped explicitly.
func (e *AdapterError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

// Wrap converts err into an *AdapterError for provider/op, classifying
// context deadlines and network timeouts. A nil err stays nil and an existing
// *AdapterError is returned as is.
func Wrap(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Provider: provider, Op: op, Timeout: IsTimeout(err), Err: err}
}

// IsAdapterError reports whether err carries an *AdapterError.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}

// IsTimeout reports whether err is a context deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
