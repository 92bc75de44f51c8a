package domain

import "errors"

var (
	ErrNoticeNotFound  = errors.New("notice not found")
	ErrInvalidNoticeID = errors.New("invalid notice id")
	ErrMissingContent  = errors.New("content is required")
	ErrWatchNotFound   = errors.New("watch not found")
	ErrInvalidWatch    = errors.New("invalid watch")
	ErrWatchExists     = errors.New("watch already exists")

	ErrEmptyMessages         = errors.New("messages are required")
	ErrUnknownProvider       = errors.New("unknown llm provider")
	ErrProviderNotConfigured = errors.New("llm provider is not configured")
)
