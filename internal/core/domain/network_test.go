package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupNetwork(t *testing.T) {
	n, ok := LookupNetwork(NetworkERC20)
	require.True(t, ok)
	assert.True(t, n.Fee.Equal(decimal.NewFromInt(5)))
	assert.True(t, n.MinAmount.Equal(decimal.NewFromInt(50)))

	_, ok = LookupNetwork("DOGE")
	assert.False(t, ok)
}

func TestNetworks_StableOrder(t *testing.T) {
	got := Networks()
	require.Len(t, got, 3)
	assert.Equal(t, NetworkTRC20, got[0].Code)
	assert.Equal(t, NetworkERC20, got[1].Code)
	assert.Equal(t, NetworkBEP20, got[2].Code)
}
