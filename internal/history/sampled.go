package history

import (
	"context"
	"math/rand"
	"sync"

	"github.com/asrieldev/secureBank/internal/dataset"
	"github.com/asrieldev/secureBank/internal/domain"
)

// SampledSource draws contextual signals from the same distributions
// the synthesizer trains on. It stands in when no account history or
// reputation data exists (fresh deployments, tests); scores produced
// from sampled context are not reproducible and not tied to the actual
// transaction's history.
type SampledSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampledSource creates a sampled source with a fixed seed.
func NewSampledSource(seed int64) *SampledSource {
	return &SampledSource{rng: rand.New(rand.NewSource(seed))}
}

// Context returns independently sampled contextual signals.
func (s *SampledSource) Context(_ context.Context, _ string, _ *domain.TransactionRecord) (domain.TransactionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.TransactionContext{
		Frequency:      float64(1 + s.rng.Intn(20)),
		LocationRisk:   dataset.Beta(s.rng, 2, 5),
		IPRisk:         dataset.Beta(s.rng, 1, 10),
		TimeSinceLast:  s.rng.ExpFloat64() * 8,
		AccountAgeDays: s.rng.ExpFloat64()*365 + 30,
	}, nil
}
