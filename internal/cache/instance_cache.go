package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"formdesk/internal/model"

	"github.com/redis/go-redis/v9"
)

// InstancesKey holds the JSON array of every sent questionnaire
const InstancesKey = "sent_questionnaires"

const maxTxRetries = 5

// InstanceCache handles the sent_questionnaires list
type InstanceCache interface {
	List(ctx context.Context) ([]*model.Instance, error)
	Get(ctx context.Context, id string) (*model.Instance, error)
	// Update applies fn to the current list and writes the result back
	// atomically. fn may be called more than once on contention.
	Update(ctx context.Context, fn func([]*model.Instance) ([]*model.Instance, error)) error
}

type instanceCache struct {
	client *redis.Client
}

// NewInstanceCache creates a new instance cache
func NewInstanceCache(client *redis.Client) InstanceCache {
	return &instanceCache{client: client}
}

func (c *instanceCache) List(ctx context.Context) ([]*model.Instance, error) {
	return readInstances(ctx, c.client)
}

func (c *instanceCache) Get(ctx context.Context, id string) (*model.Instance, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range list {
		if inst.ID == id {
			return inst, nil
		}
	}
	return nil, nil
}

func (c *instanceCache) Update(ctx context.Context, fn func([]*model.Instance) ([]*model.Instance, error)) error {
	txf := func(tx *redis.Tx) error {
		list, err := readInstances(ctx, tx)
		if err != nil {
			return err
		}
		list, err = fn(list)
		if err != nil {
			return err
		}
		data, err := json.Marshal(list)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, InstancesKey, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := c.client.Watch(ctx, txf, InstancesKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too much contention", InstancesKey)
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readInstances(ctx context.Context, cmd getter) ([]*model.Instance, error) {
	data, err := cmd.Get(ctx, InstancesKey).Bytes()
	if err == redis.Nil {
		return []*model.Instance{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []*model.Instance
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", InstancesKey, err)
	}
	if list == nil {
		list = []*model.Instance{}
	}
	return list, nil
}
