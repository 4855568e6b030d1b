package execute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/metrics"
	"github.com/vitwit/nativesend/types"
	"github.com/vitwit/nativesend/utils"
)

// UnknownErrorMessage is reported when a failure carries no message.
const UnknownErrorMessage = "Unknown error occurred"

// Executor defines the contract for the execute phase
type Executor interface {
	Execute(ctx context.Context, params *types.AbilityParams, delegation *types.DelegationContext) types.ExecuteOutcome
}

// Sender performs the signed transfer.
type Sender interface {
	NativeSend(ctx context.Context, req clients.NativeSendRequest) (string, error)
}

// ExecuteService performs the transfer. It never returns an error: every
// failure, including a panic, becomes a failed outcome.
type ExecuteService struct {
	dialer     clients.Dialer
	sender     Sender
	config     types.PhaseConfig
	defaultRPC string
	timeout    time.Duration
	now        func() time.Time
	logger     logger.Logger
	metrics    metrics.Recorder
}

var _ Executor = (*ExecuteService)(nil)

type Option func(*ExecuteService)

func WithLogger(l logger.Logger) Option {
	return func(s *ExecuteService) { s.logger = l }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *ExecuteService) { s.metrics = r }
}

func WithTimeout(t time.Duration) Option {
	return func(s *ExecuteService) { s.timeout = t }
}

// WithClock overrides the clock used for ExecuteSuccess.Timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *ExecuteService) { s.now = now }
}

func WithDefaultRPCURL(url string) Option {
	return func(s *ExecuteService) { s.defaultRPC = url }
}

// NewExecuteService creates a new execute service
func NewExecuteService(dialer clients.Dialer, sender Sender, config types.PhaseConfig, opts ...Option) *ExecuteService {
	s := &ExecuteService{
		dialer:     dialer,
		sender:     sender,
		config:     config,
		defaultRPC: types.DefaultRPCURL,
		now:        time.Now,
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

// Execute sends params.Amount from the delegator to params.To.
// It makes a single attempt and returns once the node accepts the hash.
func (s *ExecuteService) Execute(
	ctx context.Context,
	params *types.AbilityParams,
	delegation *types.DelegationContext,
) (outcome types.ExecuteOutcome) {
	start := time.Now()
	labels := map[string]string{"phase": types.PhaseExecute.String()}
	log := logger.With(s.logger, map[string]any{
		"invocationId": uuid.NewString(),
		"phase":        types.PhaseExecute.String(),
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error("execute panicked", map[string]any{"panic": fmt.Sprint(r)})
			outcome = failure(panicMessage(r))
		}
		if outcome.Success {
			s.metrics.IncCounter(metrics.EventExecuteSuccess, labels)
		} else {
			s.metrics.IncCounter(metrics.EventExecuteFail, labels)
		}
		s.metrics.ObserveLatency(types.PhaseExecute.String(), time.Since(start), labels)
	}()

	result, err := s.execute(ctx, log, params, delegation)
	if err != nil {
		log.Error("native send failed", map[string]any{"error": err})
		return failure(err.Error())
	}

	log.Info("native send succeeded", map[string]any{
		"txHash": result.TxHash,
		"to":     utils.NormalizeAddress(result.To),
		"amount": result.Amount,
	})
	return types.Succeed[types.ExecuteSuccess, types.ExecuteFail](*result)
}

func (s *ExecuteService) execute(
	ctx context.Context,
	log logger.Logger,
	params *types.AbilityParams,
	delegation *types.DelegationContext,
) (*types.ExecuteSuccess, error) {
	if err := utils.ValidateAbilityParams(params); err != nil {
		return nil, err
	}
	if err := utils.ValidateDelegation(delegation); err != nil {
		return nil, err
	}

	log.Info("native send requested", map[string]any{
		"amount":    params.Amount,
		"to":        utils.NormalizeAddress(params.To),
		"rpcUrl":    params.RPCURL,
		"delegator": utils.NormalizeAddress(delegation.DelegatorPkpInfo.EthAddress),
	})

	rpcURL, err := s.config.ResolveEndpoint(types.PhaseExecute, params.RPCURL, s.defaultRPC)
	if err != nil {
		return nil, err
	}
	log.Info("using rpc endpoint", map[string]any{
		"rpcUrl":   rpcURL,
		"fallback": params.RPCURL == "",
	})

	if s.sender == nil {
		return nil, &types.AbilityError{
			Code:    types.ErrNoSigner,
			Message: "no signer configured",
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	provider, err := clients.NewEVMClient(ctx, rpcURL, s.dialer)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	txHash, err := s.sender.NativeSend(ctx, clients.NativeSendRequest{
		Provider:     provider,
		PkpPublicKey: delegation.DelegatorPkpInfo.PublicKey,
		Amount:       params.Amount,
		To:           params.To,
	})
	if err != nil {
		return nil, err
	}

	return &types.ExecuteSuccess{
		TxHash:    txHash,
		To:        params.To,
		Amount:    params.Amount,
		Timestamp: s.now().UnixMilli(),
	}, nil
}

func failure(msg string) types.ExecuteOutcome {
	if msg == "" {
		msg = UnknownErrorMessage
	}
	return types.Fail[types.ExecuteSuccess](types.ExecuteFail{Error: msg})
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
