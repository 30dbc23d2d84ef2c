package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a task repository is not provided.
	ErrRepositoryRequired = errors.New("task repository required")

	// ErrNoExtensions is returned when WithExtensions is given no extensions.
	ErrNoExtensions = errors.New("at least one file extension required")

	// ErrNotADirectory is returned when the vault root is not a directory.
	ErrNotADirectory = errors.New("vault root is not a directory")

	// ErrOutsideVault is returned for file paths that escape the vault root.
	ErrOutsideVault = errors.New("path is outside the vault")
)
