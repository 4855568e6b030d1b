// Package chaintest provides an in-memory chain and an in-process remote
// signer for tests.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/nativesend/clients"
	abilitytypes "github.com/vitwit/nativesend/types"
	"github.com/vitwit/nativesend/utils"
)

// Ether is 10^18 wei.
var Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Eth returns n ether in wei.
func Eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}

// Account is a generated key pair standing in for a delegated key.
type Account struct {
	Key       *ecdsa.PrivateKey
	Address   common.Address
	PublicKey string
}

func NewAccount(t testing.TB) Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return Account{
		Key:       key,
		Address:   crypto.PubkeyToAddress(key.PublicKey),
		PublicKey: hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
	}
}

// Delegation returns a delegation context for the account.
func (a Account) Delegation() *abilitytypes.DelegationContext {
	return &abilitytypes.DelegationContext{
		DelegatorPkpInfo: abilitytypes.PkpInfo{
			EthAddress: a.Address.Hex(),
			PublicKey:  a.PublicKey,
			TokenID:    "1",
		},
	}
}

// Chain wraps a simulated backend.
type Chain struct {
	Sim *simulated.Backend
}

// NewChain starts a simulated chain funding each address with its balance.
func NewChain(t testing.TB, balances map[common.Address]*big.Int) *Chain {
	t.Helper()
	alloc := types.GenesisAlloc{}
	for addr, bal := range balances {
		alloc[addr] = types.Account{Balance: bal}
	}
	sim := simulated.NewBackend(alloc)
	t.Cleanup(func() { _ = sim.Close() })
	return &Chain{Sim: sim}
}

func (c *Chain) Client() simulated.Client {
	return c.Sim.Client()
}

// Dialer hands the simulated client to every phase, whatever the endpoint.
func (c *Chain) Dialer() clients.Dialer {
	return clients.StaticDialer(c.Sim.Client())
}

// Balance reads the committed balance of addr.
func (c *Chain) Balance(t testing.TB, addr common.Address) *big.Int {
	t.Helper()
	bal, err := c.Sim.Client().BalanceAt(context.Background(), addr, nil)
	require.NoError(t, err)
	return bal
}

// SigningService is a pkp_signDigest server holding private keys in memory.
type SigningService struct {
	mu    sync.Mutex
	keys  map[common.Address]*ecdsa.PrivateKey
	calls int

	// Override, when set, signs every digest with this key instead.
	Override *ecdsa.PrivateKey
	// Reject, when set, is returned for every request.
	Reject error
}

func NewSigningService(accounts ...Account) *SigningService {
	s := &SigningService{keys: make(map[common.Address]*ecdsa.PrivateKey)}
	for _, a := range accounts {
		s.keys[a.Address] = a.Key
	}
	return s
}

// SignDigest serves pkp_signDigest.
func (s *SigningService) SignDigest(_ context.Context, req clients.SignDigestRequest) (hexutil.Bytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.Reject != nil {
		return nil, s.Reject
	}

	addr, err := utils.PublicKeyToAddress(req.PublicKey)
	if err != nil {
		return nil, err
	}
	key := s.Override
	if key == nil {
		key = s.keys[addr]
	}
	if key == nil {
		return nil, errors.New("unknown pkp")
	}

	sig, err := crypto.Sign(req.Digest, key)
	if err != nil {
		return nil, err
	}
	// Report V as 27/28, the way many signing services do.
	sig[64] += 27
	return sig, nil
}

func (s *SigningService) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// NewRemoteSigner serves svc over an in-process JSON-RPC connection.
func NewRemoteSigner(t testing.TB, svc *SigningService) *clients.RemoteSigner {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("pkp", svc))
	signer := clients.NewRemoteSigner(rpc.DialInProc(server))
	t.Cleanup(func() {
		signer.Close()
		server.Stop()
	})
	return signer
}
