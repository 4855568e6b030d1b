package clients

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vitwit/nativesend/logger"
	abilitytypes "github.com/vitwit/nativesend/types"
	"github.com/vitwit/nativesend/utils"
)

// NativeSendRequest describes one native-currency transfer.
type NativeSendRequest struct {
	Provider     *EVMClient
	PkpPublicKey string
	// Decimal ether amount, e.g. "0.25".
	Amount string
	To     string
}

// NativeSender builds, signs and broadcasts native transfers from a
// delegated key. It does not wait for inclusion.
type NativeSender struct {
	signer Signer
	logger logger.Logger
}

func NewNativeSender(signer Signer, l logger.Logger) *NativeSender {
	if l == nil {
		l = logger.NoopLogger{}
	}
	return &NativeSender{signer: signer, logger: l}
}

// NativeSend transfers Amount ether to To and returns the transaction hash
// once the node has accepted it.
func (n *NativeSender) NativeSend(ctx context.Context, req NativeSendRequest) (string, error) {
	if n.signer == nil {
		return "", &abilitytypes.AbilityError{
			Code:    abilitytypes.ErrNoSigner,
			Message: "no signer configured",
		}
	}
	if req.Provider == nil {
		return "", networkError("no provider", nil)
	}
	if !utils.ValidateAddress(req.To) {
		return "", invalidParams("invalid recipient %q", nil, req.To)
	}

	value, err := utils.ParseEther(req.Amount)
	if err != nil {
		return "", invalidParams("invalid amount %q", err, req.Amount)
	}

	from, err := utils.PublicKeyToAddress(req.PkpPublicKey)
	if err != nil {
		return "", invalidParams("invalid pkp public key", err)
	}
	to := common.HexToAddress(req.To)
	backend := req.Provider.Backend()

	chainID, err := req.Provider.ChainID(ctx)
	if err != nil {
		return "", networkError("chain id failed", err)
	}

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", networkError("pending nonce failed", err)
	}

	gasLimit, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value})
	if err != nil {
		return "", networkError("estimate gas failed", err)
	}

	tx, err := n.buildTx(ctx, backend, chainID, nonce, to, value, gasLimit)
	if err != nil {
		return "", err
	}

	n.logger.Debug("signing native transfer", map[string]any{
		"from":     from.Hex(),
		"to":       to.Hex(),
		"value":    value.String(),
		"nonce":    nonce,
		"gas":      gasLimit,
		"chain_id": chainID.String(),
		"tx_type":  tx.Type(),
	})

	signed, err := n.signer.SignTransaction(ctx, req.PkpPublicKey, tx, chainID)
	if err != nil {
		return "", err
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return "", broadcastError(err)
	}

	return signed.Hash().Hex(), nil
}

// buildTx prices the transfer as EIP-1559 when the head block carries a base
// fee and as a legacy transaction otherwise.
func (n *NativeSender) buildTx(
	ctx context.Context,
	backend Backend,
	chainID *big.Int,
	nonce uint64,
	to common.Address,
	value *big.Int,
	gasLimit uint64,
) (*types.Transaction, error) {
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, networkError("head header failed", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, networkError("suggest gas price failed", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    value,
			Gas:      gasLimit,
			GasPrice: gasPrice,
		}), nil
	}

	tip, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, networkError("suggest gas tip cap failed", err)
	}
	// feeCap = 2*baseFee + tip
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		To:        &to,
		Value:     value,
		Gas:       gasLimit,
		GasTipCap: tip,
		GasFeeCap: feeCap,
	}), nil
}
