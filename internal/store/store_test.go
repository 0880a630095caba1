package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "helix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.CreateSession(0)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := s.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, s.DeleteSession(sess.ID))
	_, err = s.GetSession(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, s.DeleteSession("no-such-session"), ErrSessionNotFound)
}

func TestDeleteSessionCascades(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.CreateSession(0)
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(sess.ID, types.SenderUser, "hello"))
	require.NoError(t, s.ReplaceAllSteps(sess.ID, []string{"A", "B"}))

	require.NoError(t, s.DeleteSession(sess.ID))

	msgs, err := s.ListMessages(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	steps, err := s.ListSteps(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestMessagesPreserveOrder(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.CreateSession(0)
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(sess.ID, types.SenderUser, "first"))
	require.NoError(t, s.AppendMessage(sess.ID, types.SenderAssistant, "second"))
	require.NoError(t, s.AppendMessage(sess.ID, types.SenderUser, "third"))

	msgs, err := s.ListMessages(sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, types.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestReplaceAllStepsRenumbersDensely(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.CreateSession(0)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceAllSteps(sess.ID, []string{"A", "B", "C"}))

	steps, err := s.ListSteps(sess.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, st := range steps {
		assert.Equal(t, i+1, st.StepNumber)
	}

	// Replacing again discards the old list entirely
	require.NoError(t, s.ReplaceAllSteps(sess.ID, []string{"X"}))
	steps, err = s.ListSteps(sess.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "X", steps[0].Content)
	assert.Equal(t, 1, steps[0].StepNumber)
}

func TestGetAndUpdateStep(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.CreateSession(0)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceAllSteps(sess.ID, []string{"A", "B"}))

	st, err := s.GetStep(sess.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", st.Content)

	_, err = s.GetStep(sess.ID, 5)
	assert.ErrorIs(t, err, ErrStepNotFound)

	require.NoError(t, s.UpdateStepContent(sess.ID, 2, "B2"))
	st, err = s.GetStep(sess.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "B2", st.Content)

	// Untouched step stays byte-identical
	st, err = s.GetStep(sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", st.Content)

	assert.ErrorIs(t, s.UpdateStepContent(sess.ID, 9, "Z"), ErrStepNotFound)
}

func TestSearchResultsCache(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.CreateSession(0)
	require.NoError(t, err)

	got, err := s.GetSearchResults(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetSearchResults(sess.ID, `{"professionals":[]}`))
	got, err = s.GetSearchResults(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"professionals":[]}`, got)

	assert.ErrorIs(t, s.SetSearchResults("nope", "{}"), ErrSessionNotFound)
}

func TestProfileContext(t *testing.T) {
	s := newTestStore(t)

	userID, err := s.CreateUser(&types.UserProfile{
		Name:     "Dana",
		Company:  "Acme",
		Title:    "Head of Talent",
		Industry: "fintech",
		Preferences: map[string]string{
			"companySize": "200-person",
		},
	})
	require.NoError(t, err)

	sess, err := s.CreateSession(userID)
	require.NoError(t, err)

	ctx, err := s.GetUserContext(sess.ID)
	require.NoError(t, err)
	assert.Contains(t, ctx, "Dana")
	assert.Contains(t, ctx, "Acme")
	assert.Contains(t, ctx, "fintech")

	// Anonymous session has no context
	anon, err := s.CreateSession(0)
	require.NoError(t, err)
	ctx, err = s.GetUserContext(anon.ID)
	require.NoError(t, err)
	assert.Empty(t, ctx)
}
