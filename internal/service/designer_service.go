package service

import (
	"context"
	"errors"
	"fmt"
	"formdesk/internal/cache"
	"formdesk/internal/designer"
	"formdesk/internal/model"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDraftID names the draft stored under the bare designer.DefaultKey
const DefaultDraftID = "default"

const draftKeyPrefix = designer.DefaultKey + ":"

// DraftKey returns the blob key of a draft
func DraftKey(id string) string {
	if id == "" || id == DefaultDraftID {
		return designer.DefaultKey
	}
	return draftKeyPrefix + id
}

// OpenParams selects what the designer starts from
type OpenParams struct {
	TemplateID string `json:"template"`
	ID         string `json:"id"`
	New        bool   `json:"new"`
	Name       string `json:"name"`
}

// Draft is an open designer session
type Draft struct {
	ID            string              `json:"id"`
	Questionnaire model.Questionnaire `json:"questionnaire"`
}

// DesignerService keeps the open designer sessions, one per draft id
type DesignerService struct {
	mu        sync.Mutex
	sessions  map[string]*designer.Session
	store     cache.BlobStore
	templates *TemplateService
	logger    *zap.Logger
}

// NewDesignerService creates a new designer service
func NewDesignerService(store cache.BlobStore, templates *TemplateService, logger *zap.Logger) *DesignerService {
	return &DesignerService{
		sessions:  make(map[string]*designer.Session),
		store:     store,
		templates: templates,
		logger:    logger,
	}
}

// Open starts or resumes a draft.
//   - TemplateID: a fresh draft copied from the template, titled Name or "Copy of <title>"
//   - ID: the stored draft, or a blank one when nothing usable is stored
//   - otherwise: a blank draft titled Name; New forces a fresh id instead of the default draft
//
// A draft that did not come from storage is saved right away. When that save
// fails the draft is returned together with the *designer.PersistenceError.
func (s *DesignerService) Open(ctx context.Context, p OpenParams) (*Draft, error) {
	if p.TemplateID != "" {
		t, err := s.templates.Get(ctx, p.TemplateID)
		if err != nil {
			return nil, err
		}
		q := t.Questionnaire()
		q.Title = p.Name
		if q.Title == "" {
			q.Title = "Copy of " + t.Title
		}
		return s.start(ctx, uuid.NewString(), q, false)
	}

	id := p.ID
	if id == "" && !p.New {
		id = DefaultDraftID
	}
	if id != "" {
		if sess := s.lookup(id); sess != nil {
			return &Draft{ID: id, Questionnaire: sess.Snapshot()}, nil
		}
		q, found, err := designer.Load(ctx, s.store, DraftKey(id))
		var perr *designer.PersistenceError
		if errors.As(err, &perr) {
			return nil, err
		}
		if err != nil {
			s.logger.Warn("discarding unreadable draft", zap.String("draft", id), zap.Error(err))
		}
		if found && err == nil {
			return s.start(ctx, id, q, true)
		}
		return s.start(ctx, id, designer.Blank(p.Name), false)
	}
	return s.start(ctx, uuid.NewString(), designer.Blank(p.Name), false)
}

func (s *DesignerService) start(ctx context.Context, id string, q model.Questionnaire, stored bool) (*Draft, error) {
	sess := designer.NewSession(designer.NewDocument(q, designer.NewID), s.store, DraftKey(id))

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return &Draft{ID: id, Questionnaire: existing.Snapshot()}, nil
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("designer session opened", zap.String("draft", id), zap.Bool("stored", stored))

	var saveErr error
	if !stored {
		if _, saveErr = sess.Save(ctx); saveErr != nil {
			s.logger.Warn("initial save failed", zap.String("draft", id), zap.Error(saveErr))
		}
	}
	return &Draft{ID: id, Questionnaire: sess.Snapshot()}, saveErr
}

func (s *DesignerService) lookup(id string) *designer.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *DesignerService) session(id string) (*designer.Session, error) {
	if sess := s.lookup(id); sess != nil {
		return sess, nil
	}
	return nil, ErrSessionNotFound
}

// Get returns the current tree of an open draft
func (s *DesignerService) Get(id string) (model.Questionnaire, error) {
	sess, err := s.session(id)
	if err != nil {
		return model.Questionnaire{}, err
	}
	return sess.Snapshot(), nil
}

// Close discards the session; the stored blob is kept
func (s *DesignerService) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.logger.Info("designer session closed", zap.String("draft", id))
	return nil
}

// DeleteDraft closes any open session of the draft and removes its stored blob
func (s *DesignerService) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	_, open := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, DraftKey(id)); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	s.logger.Info("draft deleted", zap.String("draft", id), zap.Bool("wasOpen", open))
	return nil
}

// apply runs a mutation and returns the resulting tree. A failed autosave
// still returns the tree, with the *designer.PersistenceError.
func (s *DesignerService) apply(ctx context.Context, id string, fn func(*designer.Session) error) (model.Questionnaire, error) {
	sess, err := s.session(id)
	if err != nil {
		return model.Questionnaire{}, err
	}
	err = fn(sess)
	var perr *designer.PersistenceError
	if err != nil && !errors.As(err, &perr) {
		return model.Questionnaire{}, err
	}
	if perr != nil {
		s.logger.Warn("autosave failed", zap.String("draft", id), zap.Error(perr))
	}
	return sess.Snapshot(), err
}

// SetTitle renames the draft
func (s *DesignerService) SetTitle(ctx context.Context, id, title string) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		return sess.SetTitle(ctx, title)
	})
}

// AddSection appends an empty section to the draft
func (s *DesignerService) AddSection(ctx context.Context, id, title, description string) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		_, err := sess.AddSection(ctx, title, description)
		return err
	})
}

// DeleteSection removes a section and its questions
func (s *DesignerService) DeleteSection(ctx context.Context, id, sectionID string) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		return sess.DeleteSection(ctx, sectionID)
	})
}

// MoveSection moves the section at index one step up or down
func (s *DesignerService) MoveSection(ctx context.Context, id string, index int, up bool) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		if up {
			return sess.MoveSectionUp(ctx, index)
		}
		return sess.MoveSectionDown(ctx, index)
	})
}

// AddQuestion appends a question to a section
func (s *DesignerService) AddQuestion(ctx context.Context, id, sectionID string, in designer.QuestionInput) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		_, err := sess.AddQuestion(ctx, sectionID, in)
		return err
	})
}

// UpdateQuestion replaces the editable fields of a question
func (s *DesignerService) UpdateQuestion(ctx context.Context, id, sectionID, questionID string, in designer.QuestionInput) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		_, err := sess.UpdateQuestion(ctx, sectionID, questionID, in)
		return err
	})
}

// DeleteQuestion removes a question from a section
func (s *DesignerService) DeleteQuestion(ctx context.Context, id, sectionID, questionID string) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		return sess.DeleteQuestion(ctx, sectionID, questionID)
	})
}

// ReorderQuestions moves a question within its section from one position to another
func (s *DesignerService) ReorderQuestions(ctx context.Context, id, sectionID string, from, to int) (model.Questionnaire, error) {
	return s.apply(ctx, id, func(sess *designer.Session) error {
		return sess.ReorderQuestions(ctx, sectionID, from, to)
	})
}

// Save forces a save of the draft
func (s *DesignerService) Save(ctx context.Context, id string) (model.Questionnaire, error) {
	sess, err := s.session(id)
	if err != nil {
		return model.Questionnaire{}, err
	}
	return sess.Save(ctx)
}

// ListDrafts summarizes every stored draft, most recently saved first
func (s *DesignerService) ListDrafts(ctx context.Context) ([]model.DraftSummary, error) {
	keys, err := s.store.Keys(ctx, designer.DefaultKey+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan drafts: %w", err)
	}

	drafts := []model.DraftSummary{}
	for _, key := range keys {
		var id string
		switch {
		case key == designer.DefaultKey:
			id = DefaultDraftID
		case strings.HasPrefix(key, draftKeyPrefix):
			id = strings.TrimPrefix(key, draftKeyPrefix)
		default:
			continue
		}
		q, found, err := designer.Load(ctx, s.store, key)
		if err != nil {
			s.logger.Warn("skipping unreadable draft", zap.String("key", key), zap.Error(err))
			continue
		}
		if !found {
			continue
		}
		drafts = append(drafts, model.DraftSummary{
			ID:            id,
			Title:         q.Title,
			SectionCount:  len(q.Sections),
			QuestionCount: q.QuestionCount(),
			LastSavedAt:   q.LastSavedAt,
		})
	}

	sort.Slice(drafts, func(i, j int) bool {
		a, b := drafts[i].LastSavedAt, drafts[j].LastSavedAt
		if a == nil || b == nil || a.Equal(*b) {
			if (a == nil) != (b == nil) {
				return b == nil
			}
			return drafts[i].ID < drafts[j].ID
		}
		return a.After(*b)
	})
	return drafts, nil
}
