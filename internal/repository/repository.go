package repository

import (
	"context"
	"errors"
	"time"

	"suitcase/internal/domain"
)

// ErrRunNotFound is returned when no run has the requested uid
var ErrRunNotFound = errors.New("run not found")

// Repository defines the interface for run catalog access
type Repository interface {
	// Write operations
	CreateRun(ctx context.Context, run *domain.Run) error
	AddArtifact(ctx context.Context, artifact *domain.Artifact) error
	FinishRun(ctx context.Context, uid string, status domain.RunStatus, reason string, finishedAt time.Time) error

	// Read operations
	GetRun(ctx context.Context, uid string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// Close releases resources
	Close() error
}
