package analysis

import (
	"errors"

	aiapp "github.com/bryanwahyu/giterra/internal/application/ai"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

var (
	// ErrInvalidRequest marks client errors in an AnalyzeCommand.
	ErrInvalidRequest = errors.New("invalid analysis request")
	// ErrPersistence is returned when the run's writes were rolled back.
	ErrPersistence = errors.New("failed to persist analysis")

	ErrAllCollectionsFailed = signals.ErrAllCollectionsFailed
	ErrSynthesisFailed      = aiapp.ErrSynthesisFailed
)
