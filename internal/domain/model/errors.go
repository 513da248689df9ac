package model

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrConfiguration marks fatal configuration problems detected before any
	// network activity.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoRepositories indicates the repository list is empty after normalization.
	ErrNoRepositories = errors.New("no repositories configured")

	// ErrPersistence marks failures reading or writing durable state or summary files.
	ErrPersistence = errors.New("persistence error")
)
