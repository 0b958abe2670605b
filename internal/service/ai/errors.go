package ai

import "errors"

var ErrEmptyResponse = errors.New("model returned an empty response")

// ProviderError reports that the hosted model call failed. Timeouts, auth
// failures, rate limits and malformed responses all surface as this type.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ServiceKind names the failing dependency in client-facing messages.
func (e *ProviderError) ServiceKind() string {
	return "AI service"
}
