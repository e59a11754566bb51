package service

import (
	"context"
	"formdesk/internal/cache"
	"formdesk/internal/model"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testStart = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestInstanceService(t *testing.T) (*InstanceService, *recordingBroadcaster) {
	svc := NewInstanceService(
		cache.NewInstanceCache(setupTestRedis(t)),
		newTestTemplateService(t),
		"https://forms.example.com/",
		DefaultComplianceThreshold,
		zap.NewNop(),
	)
	svc.now = stepClock(testStart, time.Minute)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func TestInstanceSend(t *testing.T) {
	svc, b := newTestInstanceService(t)
	ctx := context.Background()

	inst, err := svc.Send(ctx, SendRequest{TemplateID: "template-1", Email: "Ops <ops@example.com>"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inst.ID, "inst-"))
	assert.Equal(t, "Security Assessment", inst.Title)
	assert.Equal(t, "ops@example.com", inst.Email)
	assert.Equal(t, model.InstanceSent, inst.Status)
	assert.Equal(t, testStart, inst.SentDate)
	assert.Equal(t, "https://forms.example.com/questionnaire/"+inst.ID, inst.URL)
	assert.Nil(t, inst.OpenedDate)
	assert.Equal(t, []string{MsgInstanceSent}, b.sent())

	got, err := svc.Get(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, inst.URL, got.URL)
}

func TestInstanceSendErrors(t *testing.T) {
	svc, b := newTestInstanceService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, SendRequest{TemplateID: "template-1", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Send(ctx, SendRequest{TemplateID: "template-99", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, b.sent())
}

func TestInstanceOpenStampsOnce(t *testing.T) {
	svc, b := newTestInstanceService(t)
	ctx := context.Background()

	inst, err := svc.Send(ctx, SendRequest{TemplateID: "template-2", Title: "GDPR 2026", Email: "dpo@example.com"})
	require.NoError(t, err)

	opened, q, err := svc.Open(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceOpened, opened.Status)
	require.NotNil(t, opened.OpenedDate)
	assert.Equal(t, "GDPR Compliance", q.Title)
	assert.NotEmpty(t, q.Sections)
	first := *opened.OpenedDate

	again, _, err := svc.Open(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceOpened, again.Status)
	assert.Equal(t, first, *again.OpenedDate)

	assert.Equal(t, []string{MsgInstanceSent, MsgInstanceOpened}, b.sent())

	_, _, err = svc.Open(ctx, "inst-missing")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestInstanceComplete(t *testing.T) {
	svc, b := newTestInstanceService(t)
	ctx := context.Background()

	inst, err := svc.Send(ctx, SendRequest{TemplateID: "template-1", Email: "ops@example.com"})
	require.NoError(t, err)
	_, _, err = svc.Open(ctx, inst.ID)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, inst.ID, model.Answers{
		"q1": {"opt1"},
		"q2": {"opt1"},
		"q3": {"opt2"},
		"q4": {"opt1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.InstanceCompleted, done.Status)
	require.NotNil(t, done.Score)
	assert.Equal(t, 35, *done.Score)
	assert.Equal(t, 40, *done.MaxScore)
	assert.True(t, *done.IsCompliant)
	require.NotNil(t, done.CompletedDate)
	require.NotNil(t, done.Results)
	require.Len(t, done.Results.Sections, 2)
	assert.Equal(t, 15, done.Results.Sections[1].Score)
	assert.Equal(t, "Partially", done.Results.Sections[1].Questions[0].Answer)

	stored, err := svc.Get(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceCompleted, stored.Status)

	_, err = svc.Complete(ctx, inst.ID, model.Answers{})
	assert.ErrorIs(t, err, ErrInstanceCompleted)

	again, _, err := svc.Open(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceCompleted, again.Status)
	assert.Equal(t, *done.CompletedDate, *again.CompletedDate)

	assert.Equal(t, []string{MsgInstanceSent, MsgInstanceOpened, MsgInstanceCompleted}, b.sent())
}

func TestInstanceCompleteWithoutOpen(t *testing.T) {
	svc, _ := newTestInstanceService(t)
	ctx := context.Background()

	inst, err := svc.Send(ctx, SendRequest{TemplateID: "template-1", Email: "ops@example.com"})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, inst.ID, model.Answers{"q1": {"opt3"}})
	require.NoError(t, err)
	assert.NotNil(t, done.OpenedDate)
	assert.Equal(t, 0, *done.Score)
	assert.False(t, *done.IsCompliant)
}

func TestInstanceList(t *testing.T) {
	svc, _ := newTestInstanceService(t)
	ctx := context.Background()

	a, err := svc.Send(ctx, SendRequest{TemplateID: "template-1", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendRequest{TemplateID: "template-4", Email: "bob@example.com"})
	require.NoError(t, err)
	_, _, err = svc.Open(ctx, a.ID)
	require.NoError(t, err)

	tests := map[string]int{
		"":           2,
		"ALICE":      1,
		"onboarding": 1,
		"opened":     1,
		"sent":       1,
		"example":    2,
		"nobody":     0,
	}
	for query, want := range tests {
		t.Run(query, func(t *testing.T) {
			list, err := svc.List(ctx, query)
			require.NoError(t, err)
			assert.Len(t, list, want)
		})
	}
}

// racingInstanceCache runs fn once against the stored list and discards the
// result, then lets another visitor open the instance before the real update
type racingInstanceCache struct {
	cache.InstanceCache
	armed    bool
	openedAt time.Time
}

func (c *racingInstanceCache) Update(ctx context.Context, fn func([]*model.Instance) ([]*model.Instance, error)) error {
	if !c.armed {
		return c.InstanceCache.Update(ctx, fn)
	}
	c.armed = false

	list, err := c.InstanceCache.List(ctx)
	if err != nil {
		return err
	}
	if _, err := fn(list); err != nil {
		return err
	}

	err = c.InstanceCache.Update(ctx, func(list []*model.Instance) ([]*model.Instance, error) {
		for _, inst := range list {
			at := c.openedAt
			inst.Status = model.InstanceOpened
			inst.OpenedDate = &at
		}
		return list, nil
	})
	if err != nil {
		return err
	}
	return c.InstanceCache.Update(ctx, fn)
}

func TestInstanceOpenLosingRetryDoesNotBroadcast(t *testing.T) {
	racing := &racingInstanceCache{
		InstanceCache: cache.NewInstanceCache(setupTestRedis(t)),
		openedAt:      testStart.Add(time.Hour),
	}
	svc := NewInstanceService(racing, newTestTemplateService(t), "https://forms.example.com", DefaultComplianceThreshold, zap.NewNop())
	svc.now = stepClock(testStart, time.Minute)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	ctx := context.Background()

	inst, err := svc.Send(ctx, SendRequest{TemplateID: "template-1", Email: "ops@example.com"})
	require.NoError(t, err)

	racing.armed = true
	opened, _, err := svc.Open(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceOpened, opened.Status)
	require.NotNil(t, opened.OpenedDate)
	assert.Equal(t, testStart.Add(time.Hour), *opened.OpenedDate)

	assert.Equal(t, []string{MsgInstanceSent}, b.sent())
}
