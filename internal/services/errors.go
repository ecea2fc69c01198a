// Package services implements the song-card workflow: card creation and
// lookup, lyrics and song generation, song status reconciliation, and email
// delivery. This file centralizes the service-level error values so handlers
// can map them to HTTP results consistently.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

var (
	// ErrCardNotFound indicates that no card matches the given id or share id.
	ErrCardNotFound = errors.New("card not found")

	// ErrJobNotFound indicates that no generation job tracks the given provider job id.
	ErrJobNotFound = errors.New("generation job not found")

	// ErrLyricsRequired is the precondition failure for song generation on a
	// card without lyrics.
	ErrLyricsRequired = errors.New("lyrics must be generated before the song")

	// ErrStatusConflict is returned when the card is not in a state that allows
	// the requested transition, typically because a concurrent request moved it.
	ErrStatusConflict = errors.New("card status does not allow this operation")

	// ErrFeatureUnavailable is returned when the provider behind an operation is
	// not configured.
	ErrFeatureUnavailable = errors.New("feature unavailable")

	// ErrNoUpdatableFields is returned by Patch when the request carries none of
	// the allow-listed fields.
	ErrNoUpdatableFields = errors.New("no valid fields to update")
)

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends msg to field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// RateLimitError reports a throttled action and when its window resets.
type RateLimitError struct {
	Action    domain.Action
	Remaining int
	ResetAt   time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s; resets at %s", e.Action, e.ResetAt.UTC().Format(time.RFC3339))
}

// FeatureError names the missing configuration behind ErrFeatureUnavailable.
type FeatureError struct {
	Feature string
	EnvVar  string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s is not available: configure %s", e.Feature, e.EnvVar)
}

func (e *FeatureError) Unwrap() error { return ErrFeatureUnavailable }
