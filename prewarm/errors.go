package prewarm

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrCoordinatorRequired is returned when a coordinator is not provided.
	ErrCoordinatorRequired = errors.New("coordinator required")

	// ErrIncomplete is returned when a run finished with failed documents.
	ErrIncomplete = errors.New("prewarm incomplete")
)
