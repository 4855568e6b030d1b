package clients

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/nativesend/utils"
)

// EVMClient is a connection to one RPC endpoint. The ability opens one per
// phase invocation and closes it when the phase returns.
type EVMClient struct {
	rpcURL  string
	backend Backend
}

// NewEVMClient dials rpcURL with dialer, or with DialEthclient when dialer is nil.
func NewEVMClient(ctx context.Context, rpcURL string, dialer Dialer) (*EVMClient, error) {
	if dialer == nil {
		dialer = DialEthclient
	}

	backend, err := dialer(ctx, rpcURL)
	if err != nil {
		return nil, networkError("failed to connect to Ethereum RPC %s", err, rpcURL)
	}

	return NewEVMClientFromBackend(rpcURL, backend), nil
}

func NewEVMClientFromBackend(rpcURL string, backend Backend) *EVMClient {
	return &EVMClient{
		rpcURL:  rpcURL,
		backend: backend,
	}
}

// GetBalance returns the latest native balance of address in wei.
// Transport errors are returned as-is.
func (e *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if !utils.ValidateAddress(address) {
		return nil, invalidParams("invalid address %q", nil, address)
	}
	return e.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
}

func (e *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := e.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	return chainID, nil
}

func (e *EVMClient) RPCURL() string { return e.rpcURL }

func (e *EVMClient) Backend() Backend { return e.backend }

// Close releases the underlying connection if the backend holds one.
func (e *EVMClient) Close() {
	if closer, ok := e.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}
