package nativesend

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/metrics"
	"github.com/vitwit/nativesend/types"
	"github.com/vitwit/nativesend/utils"
)

// NewFromConfig builds an Ability from cfg. Options are applied after the
// config and override it.
func NewFromConfig(ctx context.Context, cfg *types.AbilityConfig, opts ...Option) (*Ability, error) {
	if cfg == nil {
		cfg = &types.AbilityConfig{}
	}

	var base []Option
	var closers []func()

	log := logger.NewZapLogger(cfg.LogLevel)
	base = append(base, WithLogger(log))
	closers = append(closers, func() { _ = logger.Sync(log) })

	if cfg.DefaultRPCURL != "" {
		base = append(base, WithDefaultRPCURL(cfg.DefaultRPCURL))
	}
	if cfg.Precheck != nil {
		base = append(base, WithPhaseConfig(types.PhasePrecheck, *cfg.Precheck))
	}
	if cfg.Execute != nil {
		base = append(base, WithPhaseConfig(types.PhaseExecute, *cfg.Execute))
	}
	base = append(base, WithOutcomeValidation(cfg.ValidateOutcomes))

	var registry *prometheus.Registry
	if cfg.EnableMetrics {
		registry = prometheus.NewRegistry()
		recorder, err := metrics.NewPrometheusRecorder(registry)
		if err != nil {
			return nil, &types.AbilityError{
				Code:    types.ErrConfigError,
				Message: "failed to register metrics",
				Cause:   err,
			}
		}
		base = append(base, WithMetrics(recorder))
	}

	if cfg.SignerURL != "" {
		signer, err := clients.DialRemoteSigner(ctx, cfg.SignerURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, signer.Close)
		base = append(base, WithSigner(signer))
	}

	a := New(append(base, opts...)...)
	a.closers = append(a.closers, closers...)
	if registry != nil {
		a.gatherer = registry
	}
	return a, nil
}

// NewFromFile loads a JSON or YAML config file and builds an Ability from it.
func NewFromFile(ctx context.Context, path string, opts ...Option) (*Ability, error) {
	cfg, err := utils.LoadAbilityConfig(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(ctx, cfg, opts...)
}
