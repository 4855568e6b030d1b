package clients

import (
	"fmt"

	"github.com/vitwit/nativesend/types"
)

func networkError(format string, cause error, args ...any) error {
	return &types.AbilityError{
		Code:    types.ErrNetworkError,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func signingError(format string, cause error, args ...any) error {
	return &types.AbilityError{
		Code:    types.ErrSigningFailed,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func broadcastError(cause error) error {
	return &types.AbilityError{
		Code:    types.ErrBroadcastFailed,
		Message: "send tx failed",
		Cause:   cause,
	}
}

func invalidParams(format string, cause error, args ...any) error {
	return &types.AbilityError{
		Code:    types.ErrInvalidParams,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
