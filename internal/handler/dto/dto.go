// Package dto provides Data Transfer Objects for API requests and responses.
// Job, application and premium bodies are passed through as model documents.
package dto

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// TokenRequest is the body of POST /jwt.
type TokenRequest struct {
	User string `json:"user"`
}

// SuccessResponse acknowledges /jwt and /logout.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// PaymentIntentRequest is the body of POST /create-payment-intent.
type PaymentIntentRequest struct {
	Price float64 `json:"price"`
}

// PaymentIntentResponse carries the secret the browser confirms the payment with.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}
