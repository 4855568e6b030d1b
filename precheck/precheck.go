package precheck

import (
	"context"
	"fmt"
	"time"

	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/metrics"
	"github.com/vitwit/nativesend/types"
	"github.com/vitwit/nativesend/utils"
)

// Checker defines the contract for the precheck phase
type Checker interface {
	Precheck(ctx context.Context, params *types.AbilityParams, delegation *types.DelegationContext) (types.PrecheckOutcome, error)
}

// PrecheckService decides whether the delegator can afford a transfer.
// Each call opens its own RPC connection and keeps no state afterwards.
type PrecheckService struct {
	dialer     clients.Dialer
	config     types.PhaseConfig
	defaultRPC string
	timeout    time.Duration
	logger     logger.Logger
	metrics    metrics.Recorder
}

var _ Checker = (*PrecheckService)(nil)

type Option func(*PrecheckService)

func WithLogger(l logger.Logger) Option {
	return func(s *PrecheckService) { s.logger = l }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *PrecheckService) { s.metrics = r }
}

// WithTimeout bounds each call. Zero means no bound beyond ctx.
func WithTimeout(t time.Duration) Option {
	return func(s *PrecheckService) { s.timeout = t }
}

// WithDefaultRPCURL sets the fallback endpoint used when config allows it.
func WithDefaultRPCURL(url string) Option {
	return func(s *PrecheckService) { s.defaultRPC = url }
}

// NewPrecheckService creates a new precheck service
func NewPrecheckService(dialer clients.Dialer, config types.PhaseConfig, opts ...Option) *PrecheckService {
	s := &PrecheckService{
		dialer:     dialer,
		config:     config,
		defaultRPC: types.DefaultRPCURL,
		logger:     logger.NoopLogger{},
		metrics:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = clients.DialEthclient
	}
	return s
}

// Precheck compares the delegator's balance with the requested amount.
//
// A shortfall is reported as a failed outcome with reason
// INSUFFICIENT_BALANCE. Invalid input, a missing endpoint and RPC failures
// are returned as errors; balance query errors are returned unmodified.
func (s *PrecheckService) Precheck(
	ctx context.Context,
	params *types.AbilityParams,
	delegation *types.DelegationContext,
) (types.PrecheckOutcome, error) {
	start := time.Now()
	labels := map[string]string{"phase": types.PhasePrecheck.String()}
	defer func() {
		s.metrics.ObserveLatency(types.PhasePrecheck.String(), time.Since(start), labels)
	}()

	outcome, err := s.precheck(ctx, params, delegation)
	switch {
	case err != nil:
		s.metrics.IncCounter(metrics.EventPrecheckError, labels)
		s.logger.Warn("precheck error", map[string]any{"error": err})
	case outcome.Success:
		s.metrics.IncCounter(metrics.EventPrecheckSuccess, labels)
	default:
		s.metrics.IncCounter(metrics.EventPrecheckFail, labels)
	}
	return outcome, err
}

func (s *PrecheckService) precheck(
	ctx context.Context,
	params *types.AbilityParams,
	delegation *types.DelegationContext,
) (types.PrecheckOutcome, error) {
	if err := utils.ValidateAbilityParams(params); err != nil {
		return types.PrecheckOutcome{}, err
	}
	if err := utils.ValidateDelegator(delegation); err != nil {
		return types.PrecheckOutcome{}, err
	}

	rpcURL, err := s.config.ResolveEndpoint(types.PhasePrecheck, params.RPCURL, s.defaultRPC)
	if err != nil {
		return types.PrecheckOutcome{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := clients.NewEVMClient(ctx, rpcURL, s.dialer)
	if err != nil {
		return types.PrecheckOutcome{}, err
	}
	defer client.Close()

	delegator := delegation.DelegatorPkpInfo.EthAddress

	balance, err := client.GetBalance(ctx, delegator)
	if err != nil {
		return types.PrecheckOutcome{}, err
	}

	amount, err := utils.ParseEther(params.Amount)
	if err != nil {
		return types.PrecheckOutcome{}, &types.AbilityError{
			Code:    types.ErrInvalidParams,
			Message: fmt.Sprintf("invalid amount %q", params.Amount),
			Cause:   err,
		}
	}

	s.logger.Debug("precheck balance", map[string]any{
		"delegator": delegator,
		"balance":   utils.FormatEther(balance),
		"required":  utils.FormatEther(amount),
		"rpc_url":   rpcURL,
	})

	if balance.Cmp(amount) < 0 {
		return types.Fail[types.PrecheckSuccess](types.PrecheckFail{
			Error: fmt.Sprintf(
				"Delegator (%s) does not have enough tokens to send %s to %s",
				delegator, params.Amount, params.To,
			),
			Reason: types.ReasonInsufficientBalance,
		}), nil
	}

	return types.Succeed[types.PrecheckSuccess, types.PrecheckFail](types.PrecheckSuccess{
		AvailableBalance: balance.String(),
	}), nil
}
