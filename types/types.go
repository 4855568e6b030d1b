package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AbilityParams are the validated inputs shared by both phases.
type AbilityParams struct {
	// RPC endpoint used for balance queries and broadcast.
	// Precheck requires it; execute falls back to a default endpoint.
	RPCURL string `json:"rpcUrl,omitempty" yaml:"rpcUrl,omitempty" validate:"omitempty,url"`

	// Decimal quantity of native currency, e.g. "0.25".
	// Converted to the chain's minimal unit (wei) before use.
	Amount string `json:"amount" yaml:"amount" validate:"required,amount"`

	// Recipient address.
	To string `json:"to" yaml:"to" validate:"required,eth_addr"`
}

// Known precheck failure reasons.
const (
	ReasonInsufficientBalance = "INSUFFICIENT_BALANCE"
)

// PrecheckSuccess carries the delegator balance observed at check time,
// in minimal units. It is not a reservation.
type PrecheckSuccess struct {
	AvailableBalance string `json:"availableBalance" validate:"required,numeric"`
}

// PrecheckFail is a business-rule failure of the precheck phase.
type PrecheckFail struct {
	Error  string `json:"error" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"omitempty,oneof=INSUFFICIENT_BALANCE"`
}

// ExecuteSuccess describes a transfer the node accepted.
type ExecuteSuccess struct {
	TxHash string `json:"txHash" validate:"required,len=66,hexadecimal"`
	To     string `json:"to" validate:"required,eth_addr"`
	Amount string `json:"amount" validate:"required"`
	// Unix milliseconds captured when the transfer returned.
	Timestamp int64 `json:"timestamp" validate:"gt=0"`
}

// ExecuteFail carries the message of the error that stopped execute.
type ExecuteFail struct {
	Error string `json:"error" validate:"required"`
}

// Outcome is the result of a single phase. Exactly one of Result and
// Failure is set, and Success tells which.
type Outcome[S any, F any] struct {
	Success bool
	Result  *S
	Failure *F
}

// PrecheckOutcome is returned by the precheck phase.
type PrecheckOutcome = Outcome[PrecheckSuccess, PrecheckFail]

// ExecuteOutcome is returned by the execute phase.
type ExecuteOutcome = Outcome[ExecuteSuccess, ExecuteFail]

// Succeed builds a successful outcome.
func Succeed[S any, F any](result S) Outcome[S, F] {
	return Outcome[S, F]{Success: true, Result: &result}
}

// Fail builds a failed outcome.
func Fail[S any, F any](failure F) Outcome[S, F] {
	return Outcome[S, F]{Success: false, Failure: &failure}
}

// Payload returns whichever side of the outcome is set.
func (o Outcome[S, F]) Payload() any {
	if o.Success {
		if o.Result == nil {
			return nil
		}
		return *o.Result
	}
	if o.Failure == nil {
		return nil
	}
	return *o.Failure
}

type outcomeJSON struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// MarshalJSON encodes the outcome as {"success": bool, "result": payload}.
func (o Outcome[S, F]) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(o.Payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(outcomeJSON{Success: o.Success, Result: payload})
}

// UnmarshalJSON decodes the {"success", "result"} form.
func (o *Outcome[S, F]) UnmarshalJSON(data []byte) error {
	var raw outcomeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Outcome[S, F]{Success: raw.Success}
	if raw.Success {
		o.Result = new(S)
		return json.Unmarshal(raw.Result, o.Result)
	}
	o.Failure = new(F)
	return json.Unmarshal(raw.Result, o.Failure)
}

// AbilityMetadata is what the delegation runtime uses to register the ability.
type AbilityMetadata struct {
	PackageName       string   `json:"packageName"`
	Description       string   `json:"description"`
	SupportedPolicies []string `json:"supportedPolicies"`
}

// AbilityConfig contains the configuration for an ability instance.
// A nil phase config keeps that phase's default endpoint policy.
type AbilityConfig struct {
	DefaultRPCURL    string       `json:"defaultRpcUrl,omitempty" yaml:"defaultRpcUrl,omitempty" validate:"omitempty,url"`
	Precheck         *PhaseConfig `json:"precheck,omitempty" yaml:"precheck,omitempty"`
	Execute          *PhaseConfig `json:"execute,omitempty" yaml:"execute,omitempty"`
	SignerURL        string       `json:"signerUrl,omitempty" yaml:"signerUrl,omitempty" validate:"omitempty,url"`
	LogLevel         string       `json:"logLevel,omitempty" yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	EnableMetrics    bool         `json:"enableMetrics,omitempty" yaml:"enableMetrics,omitempty"`
	ValidateOutcomes bool         `json:"validateOutcomes,omitempty" yaml:"validateOutcomes,omitempty"`
}

// Error types
type AbilityError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AbilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AbilityError) Unwrap() error {
	return e.Cause
}

// Is matches any *AbilityError carrying the same code, so callers can write
// errors.Is(err, &AbilityError{Code: ErrInvalidParams}).
func (e *AbilityError) Is(target error) bool {
	t, ok := target.(*AbilityError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common error codes
const (
	ErrInvalidParams     = "INVALID_PARAMS"
	ErrInvalidDelegation = "INVALID_DELEGATION"
	ErrInvalidOutcome    = "INVALID_OUTCOME"
	ErrMissingEndpoint   = "MISSING_ENDPOINT"
	ErrConfigError       = "CONFIG_ERROR"
	ErrNetworkError      = "NETWORK_ERROR"
	ErrSigningFailed     = "SIGNING_FAILED"
	ErrBroadcastFailed   = "BROADCAST_FAILED"
	ErrNoSigner          = "NO_SIGNER"
)

// ErrorCode extracts the code of an *AbilityError, or "" for any other error.
func ErrorCode(err error) string {
	var ae *AbilityError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
