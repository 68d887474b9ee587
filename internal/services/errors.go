package services

import "errors"

// Failure taxonomy for the edit workflow. Handlers map these to HTTP statuses;
// services wrap them with request detail via fmt.Errorf("...: %w", ...).
var (
  // ErrValidation marks missing or malformed required input. Rejected before
  // any side effect.
  ErrValidation = errors.New("validation error")

  // ErrNotFound marks an unknown session, version, or angle label.
  ErrNotFound = errors.New("not found")

  // ErrMissingContext marks an edit that carries no previous version, no
  // session id, and no design intent to seed a new session from.
  ErrMissingContext = errors.New("missing session context")

  // ErrUpstreamIncomplete marks a generation response with no image part.
  ErrUpstreamIncomplete = errors.New("upstream response contained no image")

  // ErrUpstreamFailure marks a failed call to the image model or blob store.
  ErrUpstreamFailure = errors.New("upstream failure")

  // ErrStorageFailure marks a failed database write. A version either exists
  // in full or not at all.
  ErrStorageFailure = errors.New("storage failure")
)
