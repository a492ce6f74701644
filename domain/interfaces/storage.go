package interfaces

import "bmc_collect/domain/entities"

// ArtifactStore persists failure diagnostics. Every save overwrites the previous failure.
type ArtifactStore interface {
	// Reset removes the artifacts of the previous failure
	Reset() error

	// SaveSnapshot writes the screenshot and returns its path
	SaveSnapshot(data []byte) (string, error)

	// SaveDocument writes the page markup and returns its path
	SaveDocument(markup string) (string, error)

	// SaveRecord writes the artifact description
	SaveRecord(artifact entities.FailureArtifact) error

	// LoadRecord reads the last artifact description
	LoadRecord() (entities.FailureArtifact, error)
}
