// Package sms talks to the one-time-code provider that generates, delivers
// and validates phone verification codes.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Gateway generates and validates one-time codes for a canonical phone number.
// Every Generate call supersedes the previous code for that number.
type Gateway interface {
	Generate(ctx context.Context, number string) error
	Verify(ctx context.Context, number, code string) error
}

var (
	// ErrUnreachable is returned when the provider cannot be reached or replies
	// with something that is not a provider response.
	ErrUnreachable = errors.New("sms gateway unreachable")
	// ErrInvalidCode matches a GatewayError whose category is CategoryInvalidCode.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeExpired matches a GatewayError whose category is CategoryCodeExpired.
	ErrCodeExpired = errors.New("verification code expired")
)

// Category groups provider codes into the failures callers act on.
type Category string

const (
	CategoryInvalidNumber       Category = "invalid_number"
	CategoryInsufficientBalance Category = "insufficient_balance"
	CategoryMissingInformation  Category = "missing_information"
	CategoryInvalidCode         Category = "invalid_code"
	CategoryCodeExpired         Category = "code_expired"
	CategoryProviderError       Category = "provider_error"
)

// Provider response codes.
const (
	CodeGenerated          = "1000"
	CodeVerified           = "1100"
	CodeMissingInformation = "1001"
	CodeInvalidNumber      = "1005"
	CodeInsufficientFunds  = "1007"
	CodeWrongCode          = "1104"
	CodeExpired            = "1105"
)

// GatewayError is a provider rejection carrying the provider code and a
// message suitable for showing to the user.
type GatewayError struct {
	Code     string
	Category Category
	Message  string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// Is lets errors.Is match the code-specific sentinels.
func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrInvalidCode:
		return e.Category == CategoryInvalidCode
	case ErrCodeExpired:
		return e.Category == CategoryCodeExpired
	}
	return false
}

// ErrorForCode maps a provider code to a GatewayError.
func ErrorForCode(code string) *GatewayError {
	switch code {
	case CodeInvalidNumber:
		return &GatewayError{Code: code, Category: CategoryInvalidNumber, Message: "Invalid phone number format."}
	case CodeInsufficientFunds:
		return &GatewayError{Code: code, Category: CategoryInsufficientBalance, Message: "System error: Insufficient SMS balance."}
	case CodeMissingInformation:
		return &GatewayError{Code: code, Category: CategoryMissingInformation, Message: "Required information is missing."}
	case CodeWrongCode:
		return &GatewayError{Code: code, Category: CategoryInvalidCode, Message: "The code you entered is incorrect."}
	case CodeExpired:
		return &GatewayError{Code: code, Category: CategoryCodeExpired, Message: "This code has expired. Please request a new one."}
	default:
		return &GatewayError{Code: code, Category: CategoryProviderError, Message: fmt.Sprintf("Authentication error (Code %s)", code)}
	}
}

// providerCode accepts the code as either a JSON string or a JSON number.
type providerCode string

func (c *providerCode) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = providerCode(s)
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("provider code %s: %w", raw, err)
	}
	*c = providerCode(strconv.FormatInt(n, 10))
	return nil
}
