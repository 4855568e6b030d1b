package clients_test

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vitwit/nativesend/clients"
)

// failingBackend returns err from every call.
type failingBackend struct {
	err    error
	closed bool
}

var _ clients.Backend = (*failingBackend)(nil)

func (f *failingBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return nil, f.err
}

func (f *failingBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, f.err
}

func (f *failingBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, f.err
}

func (f *failingBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return nil, f.err
}

func (f *failingBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return nil, f.err
}

func (f *failingBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 0, f.err
}

func (f *failingBackend) ChainID(context.Context) (*big.Int, error) {
	return nil, f.err
}

func (f *failingBackend) SendTransaction(context.Context, *types.Transaction) error {
	return f.err
}

func (f *failingBackend) Close() { f.closed = true }

// legacyBackend serves a pre-London chain: no base fee, fixed gas price.
type legacyBackend struct {
	chainID  *big.Int
	gasPrice *big.Int
	sent     []*types.Transaction
}

var _ clients.Backend = (*legacyBackend)(nil)

func (l *legacyBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (l *legacyBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (l *legacyBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100)}, nil
}

func (l *legacyBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return l.gasPrice, nil
}

func (l *legacyBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return nil, ethereum.NotFound
}

func (l *legacyBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (l *legacyBackend) ChainID(context.Context) (*big.Int, error) {
	return l.chainID, nil
}

func (l *legacyBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	l.sent = append(l.sent, tx)
	return nil
}
