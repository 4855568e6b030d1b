package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/nativesend/types"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report wire names (rpcUrl, ethAddress...) instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validators
	if err := validate.RegisterValidation("amount", validateAmountTag); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("pubkey", validatePublicKeyTag); err != nil {
		panic(err)
	}
}

// ValidateAbilityParams validates already-decoded parameters.
func ValidateAbilityParams(params *types.AbilityParams) error {
	if params == nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidParams,
			Message: "ability params are required",
		}
	}
	if err := validate.Struct(params); err != nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidParams,
			Message: fmt.Sprintf("invalid ability params: %s", ValidationMessage(err)),
			Cause:   err,
		}
	}
	return nil
}

// ParseAbilityParams parses and validates AbilityParams from JSON
func ParseAbilityParams(data []byte) (*types.AbilityParams, error) {
	var params types.AbilityParams

	if err := json.Unmarshal(data, &params); err != nil {
		return nil, &types.AbilityError{
			Code:    types.ErrInvalidParams,
			Message: fmt.Sprintf("failed to parse ability params: %v", err),
			Cause:   err,
		}
	}

	if err := ValidateAbilityParams(&params); err != nil {
		return nil, err
	}

	return &params, nil
}

// ValidateDelegation validates a delegation context supplied by the runtime.
func ValidateDelegation(delegation *types.DelegationContext) error {
	if delegation == nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidDelegation,
			Message: "delegation context is required",
		}
	}
	if err := validate.Struct(delegation); err != nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidDelegation,
			Message: fmt.Sprintf("invalid delegation: %s", ValidationMessage(err)),
			Cause:   err,
		}
	}
	return nil
}

// ValidateDelegator checks only the delegator address. It is enough for
// read-only calls that never sign.
func ValidateDelegator(delegation *types.DelegationContext) error {
	if delegation == nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidDelegation,
			Message: "delegation context is required",
		}
	}
	if err := validate.Var(delegation.DelegatorPkpInfo.EthAddress, "required,eth_addr"); err != nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidDelegation,
			Message: "invalid delegation: delegatorPkpInfo.ethAddress must be a 0x-prefixed 20-byte hex address",
			Cause:   err,
		}
	}
	return nil
}

// DecodeDelegation decodes a DelegationContext from JSON without validating it.
func DecodeDelegation(data []byte) (*types.DelegationContext, error) {
	var delegation types.DelegationContext

	if err := json.Unmarshal(data, &delegation); err != nil {
		return nil, &types.AbilityError{
			Code:    types.ErrInvalidDelegation,
			Message: fmt.Sprintf("failed to parse delegation: %v", err),
			Cause:   err,
		}
	}
	return &delegation, nil
}

// ParseDelegation parses and validates a DelegationContext from JSON
func ParseDelegation(data []byte) (*types.DelegationContext, error) {
	delegation, err := DecodeDelegation(data)
	if err != nil {
		return nil, err
	}

	if err := ValidateDelegation(delegation); err != nil {
		return nil, err
	}

	return delegation, nil
}

// ValidateOutcome checks that an outcome carries exactly one payload and
// that the payload matches its schema.
func ValidateOutcome[S any, F any](outcome types.Outcome[S, F]) error {
	switch {
	case outcome.Success && (outcome.Result == nil || outcome.Failure != nil):
		return &types.AbilityError{
			Code:    types.ErrInvalidOutcome,
			Message: "successful outcome must carry only a result",
		}
	case !outcome.Success && (outcome.Failure == nil || outcome.Result != nil):
		return &types.AbilityError{
			Code:    types.ErrInvalidOutcome,
			Message: "failed outcome must carry only a failure",
		}
	}

	if err := validate.Struct(outcome.Payload()); err != nil {
		return &types.AbilityError{
			Code:    types.ErrInvalidOutcome,
			Message: fmt.Sprintf("outcome does not match schema: %s", ValidationMessage(err)),
			Cause:   err,
		}
	}
	return nil
}

// ParseAbilityConfig parses AbilityConfig from JSON
func ParseAbilityConfig(data []byte) (*types.AbilityConfig, error) {
	var config types.AbilityConfig

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &types.AbilityError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse ability config: %v", err),
			Cause:   err,
		}
	}

	return validateConfig(&config)
}

// ParseAbilityConfigYAML parses AbilityConfig from YAML
func ParseAbilityConfigYAML(data []byte) (*types.AbilityConfig, error) {
	var config types.AbilityConfig

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &types.AbilityError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse ability config: %v", err),
			Cause:   err,
		}
	}

	return validateConfig(&config)
}

// LoadAbilityConfig reads a config file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadAbilityConfig(path string) (*types.AbilityConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.AbilityError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to read ability config %s", path),
			Cause:   err,
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseAbilityConfigYAML(content)
	default:
		return ParseAbilityConfig(content)
	}
}

func validateConfig(config *types.AbilityConfig) (*types.AbilityConfig, error) {
	if err := validate.Struct(config); err != nil {
		return nil, &types.AbilityError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("validation failed: %s", ValidationMessage(err)),
			Cause:   err,
		}
	}
	return config, nil
}

// ValidationMessage translates validation errors into user-friendly messages
func ValidationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}

		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "eth_addr":
			msgs = append(msgs, fmt.Sprintf("%s must be a 0x-prefixed 20-byte hex address", field))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", field))
		case "amount":
			msgs = append(msgs, fmt.Sprintf("%s must be a non-negative decimal with at most %d decimal places", field, NativeDecimals))
		case "pubkey":
			msgs = append(msgs, fmt.Sprintf("%s must be a hex secp256k1 public key", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Custom validator functions
func validateAmountTag(fl validator.FieldLevel) bool {
	amount := fl.Field().String()
	wei, err := ParseEther(amount)
	if err != nil {
		return false
	}
	return wei.Sign() >= 0
}

func validatePublicKeyTag(fl validator.FieldLevel) bool {
	_, err := ParsePublicKey(fl.Field().String())
	return err == nil
}
