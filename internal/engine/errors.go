package engine

import "errors"

// ErrMalformedResponse indicates a model response could not be parsed into
// the expected structured format.
var ErrMalformedResponse = errors.New("malformed model response")

// ErrClarificationNeeded indicates analysis found the request too ambiguous
// to execute; the run aborts and the caller should relay the questions.
var ErrClarificationNeeded = errors.New("request needs clarification")

// ErrUnknownSession indicates a session ID is not tracked.
var ErrUnknownSession = errors.New("unknown session")

// ErrUnreachable indicates an internal consistency violation that earlier
// validation should have made impossible.
var ErrUnreachable = errors.New("internal consistency violation")
