package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// FlowStore implements ports.FlowStore. Flows live in Redis with a TTL so
// an abandoned transfer evaporates without leaving partial state behind.
type FlowStore struct {
	client *goredis.Client
	prefix string
}

// NewFlowStore creates a new Redis-backed transfer flow store.
func NewFlowStore(client *goredis.Client) *FlowStore {
	return &FlowStore{
		client: client,
		prefix: "flow:",
	}
}

func (s *FlowStore) key(ownerID, flowID uuid.UUID) string {
	return s.prefix + ownerID.String() + ":" + flowID.String()
}

// Save writes the flow as JSON, refreshing its TTL.
func (s *FlowStore) Save(ctx context.Context, flow *domain.TransferFlow, ttl time.Duration) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	if err := s.client.Set(ctx, s.key(flow.OwnerID, flow.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis flow save: %w", err)
	}
	return nil
}

// Get retrieves a flow. Returns nil, nil if it does not exist or expired.
func (s *FlowStore) Get(ctx context.Context, ownerID, flowID uuid.UUID) (*domain.TransferFlow, error) {
	data, err := s.client.Get(ctx, s.key(ownerID, flowID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis flow get: %w", err)
	}
	flow := &domain.TransferFlow{}
	if err := json.Unmarshal(data, flow); err != nil {
		return nil, fmt.Errorf("unmarshal flow: %w", err)
	}
	return flow, nil
}

// Delete removes a flow.
func (s *FlowStore) Delete(ctx context.Context, ownerID, flowID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(ownerID, flowID)).Err(); err != nil {
		return fmt.Errorf("redis flow delete: %w", err)
	}
	return nil
}
