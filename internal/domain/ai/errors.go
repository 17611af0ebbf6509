package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrIncompleteNarrative is returned when an analyzer leaves a narrative field empty.
var ErrIncompleteNarrative = errors.New("ai narrative incomplete")
