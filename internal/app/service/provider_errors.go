package service

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"staking_hub/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// providerCode extracts the EIP-1193 code from err.
func providerCode(err error) (int, bool) {
	var pe *entity.ProviderError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

// IsUserRejected reports whether the user declined the request in the wallet.
func IsUserRejected(err error) bool {
	code, ok := providerCode(err)
	return ok && code == entity.CodeUserRejected
}

// IsUnrecognizedChain reports whether the provider does not know the requested chain.
// Some wallets wrap the code as -32603 with data.originalError.code.
func IsUnrecognizedChain(err error) bool {
	var pe *entity.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	if pe.Code == entity.CodeUnrecognizedChain {
		return true
	}
	return nestedErrorCode(pe.Data) == entity.CodeUnrecognizedChain
}

func nestedErrorCode(data any) int {
	if data == nil {
		return 0
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return 0
	}
	var wrapped struct {
		OriginalError struct {
			Code int `json:"code"`
		} `json:"originalError"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return 0
	}
	return wrapped.OriginalError.Code
}

// displayMessage returns the provider message when there is one.
func displayMessage(err error) string {
	var pe *entity.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
