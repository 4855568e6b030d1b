package clients

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the slice of an Ethereum JSON-RPC client the ability needs.
// *ethclient.Client and the simulated backend client both satisfy it.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

var _ Backend = (*ethclient.Client)(nil)

// Dialer opens a Backend for an RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// DialEthclient is the default Dialer.
func DialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// StaticDialer always hands out the same backend, whatever the endpoint.
// The shared backend is never closed by the phases that use it.
func StaticDialer(backend Backend) Dialer {
	return func(context.Context, string) (Backend, error) {
		return sharedBackend{backend}, nil
	}
}

// sharedBackend hides any Close method of the wrapped backend.
type sharedBackend struct {
	Backend
}
