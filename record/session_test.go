package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A minimal record/draft pair for exercising the session machinery.
type note struct {
	ID   int64
	Text string
}

type noteDraft struct {
	Text string
}

func noteRules() Rules[note, noteDraft] {
	return Rules[note, noteDraft]{
		Clone: func(n note) note { return n },
		Draft: func(n note) noteDraft { return noteDraft{Text: n.Text} },
		Sanitize: func(d noteDraft) (note, *ValidationError) {
			if strings.TrimSpace(d.Text) == "" {
				return note{}, &ValidationError{Field: "text", Message: "本文は必須です。"}
			}
			return note{Text: strings.TrimSpace(d.Text)}, nil
		},
		Merge: func(original, sanitized note) note {
			sanitized.ID = original.ID
			return sanitized
		},
	}
}

func TestSession_SaveRejectsBlankDraft(t *testing.T) {
	// GIVEN: A session over an existing record with the draft blanked out
	sess := NewSession(note{ID: 7, Text: "old"}, noteRules())
	sess.Draft.Text = "   "

	// WHEN: Saving
	ok := sess.Save()

	// THEN: The session stays open with the field message, no outcome yet
	assert.False(t, ok)
	assert.False(t, sess.Completed())
	assert.Equal(t, "本文は必須です。", sess.Message())
	_, accepted := sess.Result()
	assert.False(t, accepted)
}

func TestSession_SaveAfterCorrection(t *testing.T) {
	// GIVEN: A session whose first save failed validation
	sess := NewSession(note{ID: 7, Text: "old"}, noteRules())
	sess.Draft.Text = ""
	require.False(t, sess.Save())

	// WHEN: The draft is corrected and saved again
	sess.Draft.Text = "  new text  "
	ok := sess.Save()

	// THEN: The session completes once with the sanitized record keeping
	// the original identity, and the stale message clears
	require.True(t, ok)
	assert.True(t, sess.Completed())
	assert.Empty(t, sess.Message())

	got, accepted := sess.Result()
	require.True(t, accepted)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "new text", got.Text)
}

func TestSession_CancelDiscardsEdits(t *testing.T) {
	// GIVEN: A session with pending draft edits
	sess := NewSession(note{ID: 3, Text: "keep"}, noteRules())
	sess.Draft.Text = "discard me"

	// WHEN: Cancelling
	sess.Cancel()

	// THEN: The session completes with no record; a later Save is inert
	assert.True(t, sess.Completed())
	_, accepted := sess.Result()
	assert.False(t, accepted)

	assert.True(t, sess.Save())
	_, accepted = sess.Result()
	assert.False(t, accepted)
}

func TestSession_SnapshotIsolatesOriginal(t *testing.T) {
	// GIVEN: A session opened over a record
	original := note{ID: 1, Text: "before"}
	sess := NewSession(original, noteRules())

	// WHEN: The caller's copy mutates after the session opened
	original.Text = "after"

	// THEN: The draft still reflects the snapshot
	assert.Equal(t, "before", sess.Draft.Text)
}
