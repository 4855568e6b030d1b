package clients_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/internal/chaintest"
	"github.com/vitwit/nativesend/types"
)

func TestEVMClientGetBalance(t *testing.T) {
	alice := chaintest.NewAccount(t)
	chain := chaintest.NewChain(t, map[common.Address]*big.Int{alice.Address: chaintest.Eth(1)})

	client, err := clients.NewEVMClient(context.Background(), "http://sim", chain.Dialer())
	require.NoError(t, err)
	defer client.Close()

	bal, err := client.GetBalance(context.Background(), alice.Address.Hex())
	require.NoError(t, err)
	assert.Equal(t, chaintest.Eth(1).String(), bal.String())

	empty, err := client.GetBalance(context.Background(), chaintest.NewAccount(t).Address.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Int64())

	chainID, err := client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1337), chainID.Int64())
	assert.Equal(t, "http://sim", client.RPCURL())
}

func TestEVMClientGetBalanceRejectsBadAddress(t *testing.T) {
	client := clients.NewEVMClientFromBackend("http://sim", &failingBackend{})
	_, err := client.GetBalance(context.Background(), "0x1234")
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidParams, types.ErrorCode(err))
}

func TestEVMClientGetBalancePropagatesTransportError(t *testing.T) {
	transport := errors.New("connection refused")
	client := clients.NewEVMClientFromBackend("http://down", &failingBackend{err: transport})

	_, err := client.GetBalance(context.Background(), chaintest.NewAccount(t).Address.Hex())
	assert.Equal(t, transport, err)
}

func TestNewEVMClientDialError(t *testing.T) {
	dialErr := errors.New("no route to host")
	_, err := clients.NewEVMClient(context.Background(), "http://down", func(context.Context, string) (clients.Backend, error) {
		return nil, dialErr
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrNetworkError, types.ErrorCode(err))
	assert.ErrorIs(t, err, dialErr)
}

func TestEVMClientCloseClosesOwnedBackend(t *testing.T) {
	backend := &failingBackend{}
	clients.NewEVMClientFromBackend("http://x", backend).Close()
	assert.True(t, backend.closed)

	shared := &failingBackend{}
	client, err := clients.NewEVMClient(context.Background(), "http://x", clients.StaticDialer(shared))
	require.NoError(t, err)
	client.Close()
	assert.False(t, shared.closed)
}
