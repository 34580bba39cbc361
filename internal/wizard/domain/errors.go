package domain

import "errors"

var (
	ErrSessionNotFound       = errors.New("wizard session not found")
	ErrInvalidStep           = errors.New("step not reachable from current step")
	ErrInvalidPassphrase     = errors.New("invalid passphrase")
	ErrPassphraseUnavailable = errors.New("Passphrase authentication is currently unavailable. Please go back to the authentication step and use your own API key instead.")
	ErrAPIKeyRequired        = errors.New("API key is required")
	ErrUnknownArtifact       = errors.New("unknown artifact type")
	ErrNoContent             = errors.New("no generated content")
)
