package types

// Phase names one of the two ability entry points.
type Phase string

const (
	PhasePrecheck Phase = "precheck"
	PhaseExecute  Phase = "execute"
)

func (p Phase) String() string {
	return string(p)
}

// IsValid reports whether p is a known phase.
func (p Phase) IsValid() bool {
	return p == PhasePrecheck || p == PhaseExecute
}

// PhaseConfig controls per-phase endpoint resolution.
type PhaseConfig struct {
	// RequireExplicitEndpoint rejects calls without rpcUrl instead of
	// substituting the default endpoint.
	RequireExplicitEndpoint bool `json:"requireExplicitEndpoint" yaml:"requireExplicitEndpoint"`
}

// DefaultPhaseConfigs returns the stock endpoint policy: precheck needs an
// explicit endpoint, execute falls back to the default one.
func DefaultPhaseConfigs() map[Phase]PhaseConfig {
	return map[Phase]PhaseConfig{
		PhasePrecheck: {RequireExplicitEndpoint: true},
		PhaseExecute:  {RequireExplicitEndpoint: false},
	}
}

// DefaultRPCURL is used by phases that allow falling back to a default endpoint.
const DefaultRPCURL = "https://yellowstone-rpc.litprotocol.com/"

// ResolveEndpoint picks the endpoint a phase talks to.
func (c PhaseConfig) ResolveEndpoint(phase Phase, rpcURL, defaultURL string) (string, error) {
	if rpcURL != "" {
		return rpcURL, nil
	}
	if c.RequireExplicitEndpoint {
		return "", &AbilityError{
			Code:    ErrMissingEndpoint,
			Message: "rpcUrl is required for " + phase.String(),
		}
	}
	if defaultURL == "" {
		defaultURL = DefaultRPCURL
	}
	return defaultURL, nil
}
