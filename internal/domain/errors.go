package domain

import "errors"

var (
	ErrModelNotFound      = errors.New("model not found")
	ErrStateCorrupt       = errors.New("session state is corrupt")
	ErrWriteConflict      = errors.New("transcript already exists")
	ErrTargetExists       = errors.New("vault target already exists")
	ErrTemplateMissing    = errors.New("vault template missing")
	ErrNotInitialized     = errors.New("inference session not initialized")
	ErrGeneration         = errors.New("generation failed")
	ErrBusy               = errors.New("inference session busy")
	ErrRecording          = errors.New("recording exchange failed")
	ErrNoVaultConfigured  = errors.New("no vault configured")
	ErrRuntimeUnavailable = errors.New("model runtime unavailable")

	// ErrUnknownPlaceholder is a template error; errors.Is also matches ErrTemplateMissing.
	ErrUnknownPlaceholder = unknownPlaceholderError{}

	ErrInvalidInternetMode = errors.New("invalid internet mode")

	ErrUnknownTier       = errors.New("unknown compliance tier")
	ErrNoArtifacts       = errors.New("no artifacts found")
	ErrSidecarIncomplete = errors.New("sidecar is missing required keys")
	ErrSidecarMalformed  = errors.New("sidecar is not a JSON object")
)

type unknownPlaceholderError struct{}

func (unknownPlaceholderError) Error() string { return "unknown template placeholder" }

func (unknownPlaceholderError) Is(target error) bool {
	return target == ErrTemplateMissing
}
