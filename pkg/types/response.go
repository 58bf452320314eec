// Package types holds the JSON envelopes shared by every inventory endpoint.
package types

// SuccessEnvelope wraps a sweet, a list of sweets or a health report.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError carries a stable machine code next to a client-safe message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func Success(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

// Failure builds an error body; nil details are left out of the JSON.
func Failure(code, message string, details any) ErrorEnvelope {
	env := ErrorEnvelope{Error: APIError{Code: code, Message: message}}
	if details != nil {
		env.Error.Details = details
	}
	return env
}
