package runner

import (
	"context"
	"fmt"

	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/types"
	"github.com/vitwit/nativesend/utils"
)

// Ability is what the runner dispatches to.
type Ability interface {
	Precheck(ctx context.Context, params *types.AbilityParams, delegation *types.DelegationContext) (types.PrecheckOutcome, error)
	Execute(ctx context.Context, params *types.AbilityParams, delegation *types.DelegationContext) types.ExecuteOutcome
}

// Runner sits between the delegation runtime and an Ability: it validates
// raw input, dispatches the phase and reports the outcome.
type Runner struct {
	ability          Ability
	validateOutcomes bool
	logger           logger.Logger
}

type Option func(*Runner)

// WithOutcomeValidation checks every outcome payload against its schema
// before it is reported.
func WithOutcomeValidation(enabled bool) Option {
	return func(r *Runner) { r.validateOutcomes = enabled }
}

func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func New(ability Ability, opts ...Option) *Runner {
	r := &Runner{
		ability: ability,
		logger:  logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle runs one phase with the default runner settings.
func Handle(
	ctx context.Context,
	ability Ability,
	phase types.Phase,
	rawParams []byte,
	delegation *types.DelegationContext,
	responder Responder,
) error {
	return New(ability).Handle(ctx, phase, rawParams, delegation, responder)
}

// Handle validates rawParams and delegation, runs phase and reports the
// outcome to responder. Schema violations and precheck errors are returned
// and nothing is reported.
func (r *Runner) Handle(
	ctx context.Context,
	phase types.Phase,
	rawParams []byte,
	delegation *types.DelegationContext,
	responder Responder,
) error {
	if !phase.IsValid() {
		return &types.AbilityError{
			Code:    types.ErrInvalidParams,
			Message: fmt.Sprintf("unknown phase %q", phase),
		}
	}
	if responder == nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidParams,
			Message: "responder is required",
		}
	}

	params, err := utils.ParseAbilityParams(rawParams)
	if err != nil {
		r.logger.Warn("rejected ability params", map[string]any{"phase": phase.String(), "error": err})
		return err
	}
	if err := validateDelegation(phase, delegation); err != nil {
		r.logger.Warn("rejected delegation", map[string]any{"phase": phase.String(), "error": err})
		return err
	}

	switch phase {
	case types.PhasePrecheck:
		outcome, err := r.ability.Precheck(ctx, params, delegation)
		if err != nil {
			return err
		}
		return report(r, outcome, responder)
	default:
		return report(r, r.ability.Execute(ctx, params, delegation), responder)
	}
}

// HandleJSON is Handle with the delegation context also supplied as JSON.
func (r *Runner) HandleJSON(
	ctx context.Context,
	phase types.Phase,
	rawParams []byte,
	rawDelegation []byte,
	responder Responder,
) error {
	delegation, err := utils.DecodeDelegation(rawDelegation)
	if err != nil {
		return err
	}
	return r.Handle(ctx, phase, rawParams, delegation, responder)
}

// Precheck never signs, so it only needs the delegator address.
func validateDelegation(phase types.Phase, delegation *types.DelegationContext) error {
	if phase == types.PhasePrecheck {
		return utils.ValidateDelegator(delegation)
	}
	return utils.ValidateDelegation(delegation)
}

func report[S any, F any](r *Runner, outcome types.Outcome[S, F], responder Responder) error {
	if r.validateOutcomes {
		if err := utils.ValidateOutcome(outcome); err != nil {
			r.logger.Error("outcome failed schema validation", map[string]any{"error": err})
			return err
		}
	}

	if outcome.Success {
		return responder.Succeed(outcome.Payload())
	}
	return responder.Fail(outcome.Payload())
}
