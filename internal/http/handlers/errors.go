// Package handlers defines the stable error codes returned in the API error
// envelope. Clients branch on the code, not on the message.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "signal not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Operation-specific failures (always 5xx).
	ErrCodeListFailed    = "list_failed"
	ErrCodeGetFailed     = "get_failed"
	ErrCodeUpdateFailed  = "update_failed"
	ErrCodeWebhookFailed = "webhook_failed"
)
