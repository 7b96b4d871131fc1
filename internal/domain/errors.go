package domain

import "errors"

// Identification errors surfaced to callers. Wrap with fmt.Errorf("...: %w")
// and match with errors.Is.
var (
	ErrNoConnectivity    = errors.New("no internet connection, please check your network settings")
	ErrMissingCredential = errors.New("generative model API key not configured")
	ErrMalformedResponse = errors.New("model response is not valid JSON")
	ErrUpstreamFailure   = errors.New("failed to identify medicine")
)

// ErrStorageFailure marks persistence problems. The history boundary logs and
// swallows it; account operations return it.
var ErrStorageFailure = errors.New("storage failure")

// Account errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
