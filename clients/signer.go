package clients

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vitwit/nativesend/utils"
)

// SignDigestMethod is the JSON-RPC method a remote signer must serve.
const SignDigestMethod = "pkp_signDigest"

// Signer signs transactions on behalf of a delegated key pair it controls.
type Signer interface {
	SignTransaction(ctx context.Context, pkpPublicKey string, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// SignDigestRequest is the single parameter of pkp_signDigest.
type SignDigestRequest struct {
	PublicKey string        `json:"publicKey"`
	Digest    hexutil.Bytes `json:"digest"`
}

// RemoteSigner asks an external signing service to sign transaction digests.
type RemoteSigner struct {
	client *rpc.Client
}

var _ Signer = (*RemoteSigner)(nil)

func NewRemoteSigner(client *rpc.Client) *RemoteSigner {
	return &RemoteSigner{client: client}
}

// DialRemoteSigner connects to a signing service at url (http, ws or ipc).
func DialRemoteSigner(ctx context.Context, url string) (*RemoteSigner, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, networkError("failed to connect to signer %s", err, url)
	}
	return NewRemoteSigner(client), nil
}

// SignTransaction computes the signing hash of tx for chainID, has it signed
// remotely and checks that the signature recovers to pkpPublicKey.
func (s *RemoteSigner) SignTransaction(
	ctx context.Context,
	pkpPublicKey string,
	tx *types.Transaction,
	chainID *big.Int,
) (*types.Transaction, error) {
	expected, err := utils.ParsePublicKey(pkpPublicKey)
	if err != nil {
		return nil, signingError("invalid pkp public key", err)
	}

	signer := types.LatestSignerForChainID(chainID)
	digest := signer.Hash(tx)

	var sig hexutil.Bytes
	req := SignDigestRequest{PublicKey: pkpPublicKey, Digest: digest.Bytes()}
	if err := s.client.CallContext(ctx, &sig, SignDigestMethod, req); err != nil {
		return nil, signingError("remote signer rejected digest %s", err, digest.Hex())
	}

	normalized, err := utils.NormalizeSignature(sig)
	if err != nil {
		return nil, signingError("malformed signature", err)
	}

	recovered, err := utils.RecoverPublicKey(digest.Bytes(), normalized)
	if err != nil {
		return nil, signingError("malformed signature", err)
	}
	if !utils.SamePublicKey(recovered, expected) {
		return nil, signingError("signature does not match pkp public key", nil)
	}

	signed, err := tx.WithSignature(signer, normalized)
	if err != nil {
		return nil, signingError("attach signature", err)
	}
	return signed, nil
}

func (s *RemoteSigner) Close() {
	s.client.Close()
}
