package nativesend

import (
	"time"

	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/execute"
	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/metrics"
	"github.com/vitwit/nativesend/types"
)

type Option func(*Ability)

func WithLogger(l logger.Logger) Option {
	return func(a *Ability) {
		a.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(a *Ability) {
		a.metrics = r
	}
}

// WithTimeout bounds each phase call. Calls are unbounded by default and
// rely on ctx and the transport.
func WithTimeout(t time.Duration) Option {
	return func(a *Ability) {
		a.timeout = t
	}
}

// WithClock sets the clock used for execute timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Ability) {
		a.now = now
	}
}

// WithDialer sets how phases connect to an RPC endpoint.
func WithDialer(d clients.Dialer) Option {
	return func(a *Ability) {
		a.dialer = d
	}
}

// WithSigner sets the external signer for the delegated key.
func WithSigner(s clients.Signer) Option {
	return func(a *Ability) {
		a.signer = s
	}
}

// WithSender replaces the transfer executor entirely.
func WithSender(s execute.Sender) Option {
	return func(a *Ability) {
		a.sender = s
	}
}

func WithDefaultRPCURL(url string) Option {
	return func(a *Ability) {
		a.defaultRPC = url
	}
}

func WithPhaseConfig(phase types.Phase, cfg types.PhaseConfig) Option {
	return func(a *Ability) {
		a.phases[phase] = cfg
	}
}

func WithOutcomeValidation(enabled bool) Option {
	return func(a *Ability) {
		a.validateOutcomes = enabled
	}
}
