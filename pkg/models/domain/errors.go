package domain

import "errors"

var (
	ErrUnauthenticated      = errors.New("user not authenticated")
	ErrConfirmationMismatch = errors.New("confirmation text does not match")
	ErrDeleteInProgress     = errors.New("delete already in progress")
	ErrSubscriptionFailed   = errors.New("failed to fetch AI requests after multiple attempts")
	ErrNotFound             = errors.New("request not found")
)

// DeleteAllConfirmation must be typed verbatim to clear the filtered history.
const DeleteAllConfirmation = "DELETE-ALL-HISTORY"
