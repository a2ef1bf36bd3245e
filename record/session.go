package record

// Outcome is the result of a completed edit session: an accepted
// replacement record, or a declined edit. Accepted=false is an
// absent-value signal, not an empty record.
type Outcome[R any] struct {
	Record   R
	Accepted bool
}

// Rules parameterize a Session for one record shape. R is the persisted
// record, D the editable draft presented to the user (the draft may carry
// fields as raw text, e.g. an age entered as a string).
type Rules[R, D any] struct {
	// Clone deep-copies a record so later mutation of the source cannot
	// leak into the session.
	Clone func(R) R
	// Draft builds the editable field set from the original record.
	Draft func(R) D
	// Sanitize trims and validates the draft, producing the replacement
	// field values. Identity fields are restored by Merge afterwards.
	Sanitize func(D) (R, *ValidationError)
	// Merge combines the original record's identity with the sanitized
	// values.
	Merge func(original, sanitized R) R
}

// Session is a short-lived validation wrapper around one record. It is
// created per add/edit interaction, holds an immutable snapshot of the
// original plus a mutable draft, and completes exactly once: with an
// accepted record through Save, or with no record through Cancel.
type Session[R, D any] struct {
	original  R
	rules     Rules[R, D]
	Draft     D
	message   string
	completed bool
	outcome   Outcome[R]
}

// NewSession snapshots original and opens a session over it.
func NewSession[R, D any](original R, rules Rules[R, D]) *Session[R, D] {
	snap := rules.Clone(original)
	return &Session[R, D]{
		original: snap,
		rules:    rules,
		Draft:    rules.Draft(snap),
	}
}

// Save validates the current draft. On a validation failure the session
// stays open and Message carries the field-specific problem. On success
// the session completes with a record combining the original identity and
// the sanitized draft. Returns true once the session has completed.
func (s *Session[R, D]) Save() bool {
	if s.completed {
		return true
	}
	sanitized, verr := s.rules.Sanitize(s.Draft)
	if verr != nil {
		s.message = verr.Message
		return false
	}
	s.message = ""
	s.outcome = Outcome[R]{Record: s.rules.Merge(s.original, sanitized), Accepted: true}
	s.completed = true
	return true
}

// Cancel completes the session with no record, regardless of prior edits.
func (s *Session[R, D]) Cancel() {
	if s.completed {
		return
	}
	s.outcome = Outcome[R]{}
	s.completed = true
}

// Completed reports whether the session has signaled its outcome.
func (s *Session[R, D]) Completed() bool { return s.completed }

// Message returns the validation message from the last failed Save, or "".
func (s *Session[R, D]) Message() string { return s.message }

// Result returns the accepted record, if any. Meaningful once the session
// has completed.
func (s *Session[R, D]) Result() (R, bool) {
	return s.outcome.Record, s.outcome.Accepted
}
