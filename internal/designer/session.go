package designer

import (
	"context"
	"encoding/json"
	"fmt"
	"formdesk/internal/model"
	"sync"
	"time"
)

// DefaultKey is the blob key of the default questionnaire in progress
const DefaultKey = "questionnaire_data"

// Persister is the key-value blob store behind a session.
// Get returns (nil, nil) when the key does not exist.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Session is one editing session over a Document. Each mutation runs to
// completion under the session lock and, when it changed the tree, is
// followed by a synchronous save. A failed save is returned as a
// *PersistenceError while the mutation itself stays applied.
type Session struct {
	mu       sync.Mutex
	doc      *Document
	store    Persister
	key      string
	savedRev uint64
	now      func() time.Time
}

// NewSession starts a session over doc that persists under key
func NewSession(doc *Document, store Persister, key string) *Session {
	return &Session{
		doc:      doc,
		store:    store,
		key:      key,
		savedRev: doc.Revision(),
		now:      time.Now,
	}
}

// Load reads and decodes the questionnaire stored under key.
// found is false when nothing is stored there.
func Load(ctx context.Context, store Persister, key string) (q model.Questionnaire, found bool, err error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return model.Questionnaire{}, false, &PersistenceError{Key: key, Err: err}
	}
	if data == nil {
		return model.Questionnaire{}, false, nil
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return model.Questionnaire{}, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return q, true, nil
}

// Snapshot returns a deep copy of the current questionnaire
func (s *Session) Snapshot() model.Questionnaire {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Snapshot()
}

// Dirty reports whether the tree changed since the last successful save
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Revision() != s.savedRev
}

// Save writes the whole questionnaire to the store and stamps lastSavedAt.
func (s *Session) Save(ctx context.Context) (model.Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.save(ctx)
	return s.doc.Snapshot(), err
}

func (s *Session) save(ctx context.Context) error {
	at := s.now().UTC()
	snap := s.doc.Snapshot()
	snap.LastSavedAt = &at

	data, err := json.Marshal(snap)
	if err != nil {
		return &PersistenceError{Key: s.key, Err: err}
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return &PersistenceError{Key: s.key, Err: err}
	}
	s.doc.markSaved(at)
	s.savedRev = s.doc.Revision()
	return nil
}

// autosave persists after a mutation if the tree changed
func (s *Session) autosave(ctx context.Context) error {
	if s.doc.Revision() == s.savedRev {
		return nil
	}
	return s.save(ctx)
}

// SetTitle renames the questionnaire
func (s *Session) SetTitle(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SetTitle(title)
	return s.autosave(ctx)
}

// AddSection appends a section and returns it
func (s *Session) AddSection(ctx context.Context, title, description string) (model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.doc.AddSection(title, description)
	if err != nil {
		return model.Section{}, err
	}
	return sec, s.autosave(ctx)
}

// DeleteSection removes a section; an unknown id is a no-op
func (s *Session) DeleteSection(ctx context.Context, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DeleteSection(sectionID)
	return s.autosave(ctx)
}

// MoveSectionUp swaps the section at index with the one above it
func (s *Session) MoveSectionUp(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.MoveSectionUp(index); err != nil {
		return err
	}
	return s.autosave(ctx)
}

// MoveSectionDown swaps the section at index with the one below it
func (s *Session) MoveSectionDown(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.MoveSectionDown(index); err != nil {
		return err
	}
	return s.autosave(ctx)
}

// AddQuestion appends a question to a section and returns it
func (s *Session) AddQuestion(ctx context.Context, sectionID string, in QuestionInput) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.doc.AddQuestion(sectionID, in)
	if err != nil {
		return model.Question{}, err
	}
	return q, s.autosave(ctx)
}

// UpdateQuestion replaces a question's fields and returns the result
func (s *Session) UpdateQuestion(ctx context.Context, sectionID, questionID string, in QuestionInput) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.doc.UpdateQuestion(sectionID, questionID, in)
	if err != nil {
		return model.Question{}, err
	}
	return q, s.autosave(ctx)
}

// DeleteQuestion removes a question; unknown ids are a no-op
func (s *Session) DeleteQuestion(ctx context.Context, sectionID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DeleteQuestion(sectionID, questionID)
	return s.autosave(ctx)
}

// ReorderQuestions moves a question within its section
func (s *Session) ReorderQuestions(ctx context.Context, sectionID string, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.ReorderQuestions(sectionID, from, to); err != nil {
		return err
	}
	return s.autosave(ctx)
}
