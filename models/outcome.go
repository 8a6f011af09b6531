package models

import "time"

// Classification is the closed set of interpretations of an invitation response.
type Classification string

const (
	// ClassificationSuccess means the invitation was created (201).
	ClassificationSuccess Classification = "success"
	// ClassificationDuplicate means the relationship already exists or is
	// pending. Equivalent to success for persistence purposes.
	ClassificationDuplicate Classification = "duplicate"
	// ClassificationInvalidRequest means the identifier kind or payload shape
	// was wrong. Never a success.
	ClassificationInvalidRequest Classification = "invalid_request"
	// ClassificationRateLimited means the platform throttled the action.
	ClassificationRateLimited Classification = "rate_limited"
	// ClassificationUnknown is everything else, kept with diagnostics.
	ClassificationUnknown Classification = "unknown_error"
)

// Countable reports whether the classification consumed the external platform's
// own quota, i.e. whether a reserved budget unit must be kept.
func (c Classification) Countable() bool {
	return c == ClassificationSuccess || c == ClassificationDuplicate
}

// ConnectionExists reports whether a caller may persist a "contact made" record.
// Only Success and Duplicate qualify; everything else previously corrupted CRM
// state when collapsed into success.
func (c Classification) ConnectionExists() bool {
	return c == ClassificationSuccess || c == ClassificationDuplicate
}

// Outcome is the immutable result of one connection attempt. The caller owns it
// after return; nothing in this module persists outcomes as connections.
type Outcome struct {
	Handle         string
	HTTPStatus     int
	Classification Classification
	// RawEvidence is a short diagnostic: the matched duplicate phrase, a
	// truncated body snippet, or an error string.
	RawEvidence string
	Timestamp   time.Time
}

// BatchSummary aggregates one batch run for reporting.
type BatchSummary struct {
	Attempted   int
	Succeeded   int
	Duplicates  int
	Invalid     int
	RateLimited int
	Unknown     int
	Skipped     int
}

func (s *BatchSummary) Add(o Outcome) {
	s.Attempted++

	switch o.Classification {
	case ClassificationSuccess:
		s.Succeeded++
	case ClassificationDuplicate:
		s.Duplicates++
	case ClassificationInvalidRequest:
		s.Invalid++
	case ClassificationRateLimited:
		s.RateLimited++
	default:
		s.Unknown++
	}
}
