package designer

import (
	"context"
	"encoding/json"
	"errors"
	"formdesk/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data   map[string][]byte
	writes int
	err    error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.writes++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func newTestSession(store *memStore) *Session {
	s := NewSession(NewDocument(Blank(""), seqIDs()), store, DefaultKey)
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func stored(t *testing.T, store *memStore, key string) model.Questionnaire {
	t.Helper()
	var q model.Questionnaire
	require.NoError(t, json.Unmarshal(store.data[key], &q))
	return q
}

func TestSessionAutosavesAfterMutation(t *testing.T) {
	store := newMemStore()
	s := newTestSession(store)
	ctx := context.Background()

	sec, err := s.AddSection(ctx, "Access Controls", "")
	require.NoError(t, err)
	assert.Equal(t, 1, store.writes)

	_, err = s.AddQuestion(ctx, sec.ID, QuestionInput{Content: "MFA enabled?", AnswerType: model.AnswerOption, Options: yesNo()})
	require.NoError(t, err)
	require.NoError(t, s.SetTitle(ctx, "Security"))

	got := stored(t, store, DefaultKey)
	assert.Equal(t, "Security", got.Title)
	require.Len(t, got.Sections, 1)
	require.Len(t, got.Sections[0].Questions, 1)
	require.NotNil(t, got.LastSavedAt)
	assert.False(t, s.Dirty())
}

func TestSessionSkipsSaveForNoOps(t *testing.T) {
	store := newMemStore()
	s := newTestSession(store)
	ctx := context.Background()

	_, err := s.AddSection(ctx, "A", "")
	require.NoError(t, err)
	writes := store.writes

	require.NoError(t, s.MoveSectionUp(ctx, 0))
	require.NoError(t, s.MoveSectionDown(ctx, 0))
	require.NoError(t, s.DeleteSection(ctx, "missing"))
	require.NoError(t, s.DeleteQuestion(ctx, "section-1", "missing"))
	assert.Equal(t, writes, store.writes)
}

func TestSessionRejectsInvalidMutationWithoutSaving(t *testing.T) {
	store := newMemStore()
	s := newTestSession(store)
	ctx := context.Background()

	sec, err := s.AddSection(ctx, "A", "")
	require.NoError(t, err)
	writes := store.writes

	_, err = s.AddQuestion(ctx, sec.ID, QuestionInput{Content: "Q", AnswerType: "single-option"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, s.Snapshot().Sections[0].Questions)
	assert.Equal(t, writes, store.writes)

	var ierr *IndexError
	assert.ErrorAs(t, s.MoveSectionDown(ctx, 4), &ierr)
	assert.ErrorAs(t, s.ReorderQuestions(ctx, sec.ID, 0, 1), &ierr)
	assert.Equal(t, writes, store.writes)
}

func TestSessionPersistenceFailureKeepsMutation(t *testing.T) {
	store := newMemStore()
	s := newTestSession(store)
	ctx := context.Background()
	store.err = errors.New("quota exceeded")

	sec, err := s.AddSection(ctx, "A", "")
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, DefaultKey, perr.Key)
	assert.ErrorIs(t, err, store.err)
	assert.NotEmpty(t, sec.ID)

	snap := s.Snapshot()
	require.Len(t, snap.Sections, 1)
	assert.Nil(t, snap.LastSavedAt)
	assert.True(t, s.Dirty())

	// the next successful write catches the blob up
	store.err = nil
	require.NoError(t, s.SetTitle(ctx, "Recovered"))
	got := stored(t, store, DefaultKey)
	assert.Equal(t, "Recovered", got.Title)
	assert.Len(t, got.Sections, 1)
}

func TestSessionSaveIsIdempotent(t *testing.T) {
	store := newMemStore()
	s := newTestSession(store)
	ctx := context.Background()

	sec, err := s.AddSection(ctx, "A", "desc")
	require.NoError(t, err)
	_, err = s.AddQuestion(ctx, sec.ID, QuestionInput{Content: "Q", AnswerType: model.AnswerMultiOption, Options: yesNo()})
	require.NoError(t, err)

	first, err := s.Save(ctx)
	require.NoError(t, err)
	blob1 := stored(t, store, DefaultKey)
	second, err := s.Save(ctx)
	require.NoError(t, err)
	blob2 := stored(t, store, DefaultKey)

	s1, _ := json.Marshal(blob1.Sections)
	s2, _ := json.Marshal(blob2.Sections)
	assert.Equal(t, s1, s2)
	assert.Equal(t, blob1.Title, blob2.Title)
	assert.True(t, second.LastSavedAt.After(*first.LastSavedAt))
}

func TestLoad(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	_, found, err := Load(ctx, store, DefaultKey)
	require.NoError(t, err)
	assert.False(t, found)

	s := newTestSession(store)
	_, err = s.AddSection(ctx, "A", "")
	require.NoError(t, err)

	q, found, err := Load(ctx, store, DefaultKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s.Snapshot(), q)

	store.data["broken"] = []byte("{not json")
	_, found, err = Load(ctx, store, "broken")
	assert.True(t, found)
	assert.Error(t, err)

	store.err = errors.New("down")
	_, _, err = Load(ctx, store, DefaultKey)
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}
