package redis

import (
	"context"
	"testing"
	"time"

	"custodial-wallet/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlowStore(t *testing.T) (*FlowStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return NewFlowStore(client), s
}

func TestFlowStore_RoundTrip(t *testing.T) {
	store, _ := newFlowStore(t)
	ctx := context.Background()

	flow := domain.NewTransferFlow(uuid.New())
	flow.Advance(domain.FlowStateAwaitingConfirmation)
	flow.Network = domain.NetworkERC20
	flow.ToAddress = "0x0123456789abcdef0123456789abcdef01234567"
	flow.Amount = decimal.RequireFromString("55.75")

	require.NoError(t, store.Save(ctx, flow, 30*time.Minute))

	got, err := store.Get(ctx, flow.OwnerID, flow.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, flow.ID, got.ID)
	assert.Equal(t, domain.FlowStateAwaitingConfirmation, got.State)
	assert.Equal(t, domain.NetworkERC20, got.Network)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("55.75")))
}

func TestFlowStore_Get_Missing(t *testing.T) {
	store, _ := newFlowStore(t)

	got, err := store.Get(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFlowStore_Expiry(t *testing.T) {
	store, s := newFlowStore(t)
	ctx := context.Background()

	flow := domain.NewTransferFlow(uuid.New())
	require.NoError(t, store.Save(ctx, flow, 30*time.Minute))

	s.FastForward(31 * time.Minute)

	got, err := store.Get(ctx, flow.OwnerID, flow.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "abandoned flow evaporates after its TTL")
}

func TestFlowStore_Delete(t *testing.T) {
	store, _ := newFlowStore(t)
	ctx := context.Background()

	flow := domain.NewTransferFlow(uuid.New())
	require.NoError(t, store.Save(ctx, flow, 30*time.Minute))
	require.NoError(t, store.Delete(ctx, flow.OwnerID, flow.ID))

	got, err := store.Get(ctx, flow.OwnerID, flow.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFlowStore_ScopedPerOwner(t *testing.T) {
	store, _ := newFlowStore(t)
	ctx := context.Background()

	flow := domain.NewTransferFlow(uuid.New())
	require.NoError(t, store.Save(ctx, flow, 30*time.Minute))

	// A different owner cannot see the flow, even with the right flow ID.
	got, err := store.Get(ctx, uuid.New(), flow.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
