package pipeline

import "errors"

// Command rejections. Collaborator failures are never returned through
// these; they end up in the snapshot as state and notices.
var (
	ErrNoResult           = errors.New("no prediction result")
	ErrNotUploaded        = errors.New("report has not been uploaded")
	ErrUploadNotRetryable = errors.New("upload is not in a retryable state")
	ErrEmailInProgress    = errors.New("email is already being sent")
	ErrSmsInProgress      = errors.New("sms alert is already being sent")
	ErrSmsAlreadySent     = errors.New("sms alert already sent for this result")
	ErrNoRecipient        = errors.New("no recipient given and no default configured")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrNoContributors     = errors.New("result has no degradation contributors")
	ErrChatNotReady       = errors.New("chat assistant is not ready")
	ErrChatInitializing   = errors.New("chat assistant is initializing")
	ErrEmptyMessage       = errors.New("empty chat message")
	ErrSuperseded         = errors.New("superseded by a newer analysis")
	ErrClosed             = errors.New("pipeline closed")
)
