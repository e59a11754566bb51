package service

import (
	"context"
	"fmt"
	"formdesk/internal/cache"
	"formdesk/internal/model"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendRequest distributes a template to one recipient
type SendRequest struct {
	TemplateID string `json:"templateId"`
	Title      string `json:"title"`
	Email      string `json:"email"`
}

// InstanceService handles the lifecycle of sent questionnaires
type InstanceService struct {
	cache       cache.InstanceCache
	templates   *TemplateService
	baseURL     string
	threshold   int
	logger      *zap.Logger
	broadcaster Broadcaster
	now         func() time.Time
}

// NewInstanceService creates a new instance service. Recipient links are
// built under baseURL.
func NewInstanceService(
	c cache.InstanceCache,
	templates *TemplateService,
	baseURL string,
	threshold int,
	logger *zap.Logger,
) *InstanceService {
	return &InstanceService{
		cache:       c,
		templates:   templates,
		baseURL:     strings.TrimRight(baseURL, "/"),
		threshold:   threshold,
		logger:      logger,
		broadcaster: nopBroadcaster{},
		now:         time.Now,
	}
}

// SetBroadcaster sets the dashboard feed
func (s *InstanceService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Send creates an instance of a template for one recipient. No email is delivered.
func (s *InstanceService) Send(ctx context.Context, req SendRequest) (*model.Instance, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, req.Email)
	}
	t, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = t.Title
	}
	id := "inst-" + uuid.NewString()
	inst := &model.Instance{
		ID:         id,
		TemplateID: t.ID,
		Title:      title,
		Email:      addr.Address,
		Status:     model.InstanceSent,
		SentDate:   s.now().UTC(),
		URL:        s.baseURL + "/questionnaire/" + id,
	}

	err = s.cache.Update(ctx, func(list []*model.Instance) ([]*model.Instance, error) {
		return append(list, inst), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store instance: %w", err)
	}

	s.logger.Info("questionnaire sent", zap.String("instance", id), zap.String("template", t.ID))
	s.broadcaster.Broadcast(MsgInstanceSent, inst)
	return inst, nil
}

// Get returns one instance or ErrInstanceNotFound
func (s *InstanceService) Get(ctx context.Context, id string) (*model.Instance, error) {
	inst, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	if inst == nil {
		return nil, ErrInstanceNotFound
	}
	return inst, nil
}

// List returns instances whose title, email or status contains query,
// ignoring case. An empty query matches everything.
func (s *InstanceService) List(ctx context.Context, query string) ([]*model.Instance, error) {
	list, err := s.cache.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list, nil
	}
	return slices.DeleteFunc(list, func(inst *model.Instance) bool {
		return !strings.Contains(strings.ToLower(inst.Title), query) &&
			!strings.Contains(strings.ToLower(inst.Email), query) &&
			!strings.Contains(string(inst.Status), query)
	}), nil
}

// Open records the recipient's first visit and returns the instance with
// the questionnaire to fill in. Only the first visit stamps openedDate.
func (s *InstanceService) Open(ctx context.Context, id string) (*model.Instance, model.Questionnaire, error) {
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, model.Questionnaire{}, err
	}
	t, err := s.templates.Get(ctx, inst.TemplateID)
	if err != nil {
		return nil, model.Questionnaire{}, err
	}
	if inst.Status != model.InstanceSent {
		return inst, t.Questionnaire(), nil
	}

	var opened bool
	err = s.modify(ctx, id, func(cur *model.Instance) error {
		// fn reruns on contention; only the attempt that gets written counts
		opened = false
		if cur.Status != model.InstanceSent {
			return nil
		}
		at := s.now().UTC()
		cur.Status = model.InstanceOpened
		cur.OpenedDate = &at
		opened = true
		return nil
	}, &inst)
	if err != nil {
		return nil, model.Questionnaire{}, err
	}
	if opened {
		s.logger.Info("questionnaire opened", zap.String("instance", id))
		s.broadcaster.Broadcast(MsgInstanceOpened, inst)
	}
	return inst, t.Questionnaire(), nil
}

// Complete scores the answers against the template and closes the instance
func (s *InstanceService) Complete(ctx context.Context, id string, answers model.Answers) (*model.Instance, error) {
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.Status == model.InstanceCompleted {
		return nil, ErrInstanceCompleted
	}
	t, err := s.templates.Get(ctx, inst.TemplateID)
	if err != nil {
		return nil, err
	}

	results, score, maxScore := scoreAnswers(t.Questionnaire(), answers)
	compliant := isCompliant(score, maxScore, s.threshold)

	err = s.modify(ctx, id, func(cur *model.Instance) error {
		if cur.Status == model.InstanceCompleted {
			return ErrInstanceCompleted
		}
		at := s.now().UTC()
		if cur.OpenedDate == nil {
			cur.OpenedDate = &at
		}
		cur.Status = model.InstanceCompleted
		cur.CompletedDate = &at
		cur.Score = &score
		cur.MaxScore = &maxScore
		cur.IsCompliant = &compliant
		cur.Results = &results
		return nil
	}, &inst)
	if err != nil {
		return nil, err
	}

	s.logger.Info("questionnaire completed",
		zap.String("instance", id),
		zap.Int("score", score),
		zap.Int("maxScore", maxScore),
		zap.Bool("compliant", compliant),
	)
	s.broadcaster.Broadcast(MsgInstanceCompleted, inst)
	return inst, nil
}

// modify applies fn to the stored instance inside one list update and
// points out at the updated record
func (s *InstanceService) modify(ctx context.Context, id string, fn func(*model.Instance) error, out **model.Instance) error {
	err := s.cache.Update(ctx, func(list []*model.Instance) ([]*model.Instance, error) {
		i := slices.IndexFunc(list, func(inst *model.Instance) bool { return inst.ID == id })
		if i < 0 {
			return nil, ErrInstanceNotFound
		}
		if err := fn(list[i]); err != nil {
			return nil, err
		}
		*out = list[i]
		return list, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return nil
}
