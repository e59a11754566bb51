package service

import (
	"context"
	"errors"
	"formdesk/internal/cache"
	"formdesk/internal/catalog"
	"formdesk/internal/model"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memTemplateRepo is an in-memory repository.TemplateRepo
type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]model.Template
	err       error
}

func newMemTemplateRepo(templates ...model.Template) *memTemplateRepo {
	r := &memTemplateRepo{templates: map[string]model.Template{}}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

func (r *memTemplateRepo) List(ctx context.Context) ([]*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*model.Template{}
	for _, t := range r.templates {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTemplateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *memTemplateRepo) Upsert(ctx context.Context, t *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	t.UpdatedAt = time.Now().UTC()
	r.templates[t.ID] = *t
	return nil
}

func (r *memTemplateRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.templates)), nil
}

var errStoreDown = errors.New("store down")

// flakyBlobStore fails writes while down is set
type flakyBlobStore struct {
	cache.BlobStore
	mu   sync.Mutex
	down bool
}

func (s *flakyBlobStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *flakyBlobStore) Set(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()
	if down {
		return errStoreDown
	}
	return s.BlobStore.Set(ctx, key, data)
}

func setupTestRedis(t *testing.T) *redis.Client {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func defaultTemplates(t *testing.T) []model.Template {
	templates, err := catalog.Defaults()
	require.NoError(t, err)
	return templates
}

func newTestTemplateService(t *testing.T) *TemplateService {
	return NewTemplateService(newMemTemplateRepo(defaultTemplates(t)...), zap.NewNop())
}

// recordingBroadcaster keeps every broadcast message type
type recordingBroadcaster struct {
	mu    sync.Mutex
	types []string
}

func (b *recordingBroadcaster) Broadcast(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.types = append(b.types, msgType)
}

func (b *recordingBroadcaster) sent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.types...)
}

// stepClock returns a clock starting at start that advances by step per call
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}
