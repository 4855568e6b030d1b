// Package nativesend implements a delegated native-currency transfer ability.
//
// The ability runs in two phases. Precheck reads the delegator's balance and
// decides whether the requested amount can be sent. Execute builds a transfer,
// has it signed by the delegated key's external signer and broadcasts it.
package nativesend

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/execute"
	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/metrics"
	"github.com/vitwit/nativesend/precheck"
	"github.com/vitwit/nativesend/runner"
	"github.com/vitwit/nativesend/types"
)

const (
	PackageName = "@lit-protocol/vincent-example-ability-native-send"
	Description = "Send native ETH to a recipient"
)

// Ability is the main struct that provides both phases
type Ability struct {
	precheckService *precheck.PrecheckService
	executeService  *execute.ExecuteService

	logger           logger.Logger
	metrics          metrics.Recorder
	gatherer         prometheus.Gatherer
	timeout          time.Duration
	now              func() time.Time
	dialer           clients.Dialer
	signer           clients.Signer
	sender           execute.Sender
	defaultRPC       string
	phases           map[types.Phase]types.PhaseConfig
	validateOutcomes bool
	closers          []func()
}

var _ runner.Ability = (*Ability)(nil)

// New creates a new Ability. Without WithSigner or WithSender every execute
// call fails with NO_SIGNER.
func New(opts ...Option) *Ability {
	a := &Ability{
		logger:     logger.NoopLogger{},
		metrics:    metrics.NoopRecorder{},
		now:        time.Now,
		dialer:     clients.DialEthclient,
		defaultRPC: types.DefaultRPCURL,
		phases:     types.DefaultPhaseConfigs(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.sender == nil && a.signer != nil {
		a.sender = clients.NewNativeSender(a.signer, a.logger)
	}

	a.precheckService = precheck.NewPrecheckService(
		a.dialer,
		a.phases[types.PhasePrecheck],
		precheck.WithLogger(a.logger),
		precheck.WithMetrics(a.metrics),
		precheck.WithTimeout(a.timeout),
		precheck.WithDefaultRPCURL(a.defaultRPC),
	)
	a.executeService = execute.NewExecuteService(
		a.dialer,
		a.sender,
		a.phases[types.PhaseExecute],
		execute.WithLogger(a.logger),
		execute.WithMetrics(a.metrics),
		execute.WithTimeout(a.timeout),
		execute.WithClock(a.now),
		execute.WithDefaultRPCURL(a.defaultRPC),
	)

	return a
}

// Metadata describes the ability to the delegation runtime.
func (a *Ability) Metadata() types.AbilityMetadata {
	return types.AbilityMetadata{
		PackageName:       PackageName,
		Description:       Description,
		SupportedPolicies: []string{},
	}
}

// Precheck reports whether the delegator can currently afford the transfer.
// RPC failures are returned as errors.
func (a *Ability) Precheck(
	ctx context.Context,
	params *types.AbilityParams,
	delegation *types.DelegationContext,
) (types.PrecheckOutcome, error) {
	return a.precheckService.Precheck(ctx, params, delegation)
}

// Execute performs the transfer. Failures are reported in the outcome.
func (a *Ability) Execute(
	ctx context.Context,
	params *types.AbilityParams,
	delegation *types.DelegationContext,
) types.ExecuteOutcome {
	return a.executeService.Execute(ctx, params, delegation)
}

// Runner returns a runner bound to this ability.
func (a *Ability) Runner() *runner.Runner {
	return runner.New(a,
		runner.WithOutcomeValidation(a.validateOutcomes),
		runner.WithLogger(a.logger),
	)
}

// Gatherer exposes the metrics registry created by NewFromConfig, or nil.
func (a *Ability) Gatherer() prometheus.Gatherer {
	return a.gatherer
}

// Close releases resources the ability opened itself, such as a signer connection.
func (a *Ability) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Version information
const (
	Version = "1.0.0"
)

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	return map[string]interface{}{
		"library_version": Version,
		"package_name":    PackageName,
		"phases":          []string{types.PhasePrecheck.String(), types.PhaseExecute.String()},
		"currency":        "native",
		"decimals":        18,
	}
}
