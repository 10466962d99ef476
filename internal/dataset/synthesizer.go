// Package dataset produces labeled synthetic transaction data for
// bootstrapping the risk models when no trained artifact exists.
package dataset

import (
	"math/rand"

	"github.com/asrieldev/secureBank/internal/domain"
)

// Sample is one labeled training row.
type Sample struct {
	Features   domain.FeatureVector
	Fraudulent bool
}

// Synthesizer generates labeled synthetic transactions. The class
// balance is controlled by weighted indicator contributions, not meant
// to model real fraud distributions.
type Synthesizer struct {
	seed int64
}

// NewSynthesizer creates a synthesizer with a fixed seed so generation
// is reproducible.
func NewSynthesizer(seed int64) *Synthesizer {
	return &Synthesizer{seed: seed}
}

// Generate produces n labeled samples.
func (s *Synthesizer) Generate(n int) []Sample {
	rng := rand.New(rand.NewSource(s.seed))

	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		// Most transactions are small
		amount := rng.ExpFloat64()*100 + 10
		hour := rng.Intn(24)
		dayOfWeek := rng.Intn(7)
		isWeekend := 0
		if dayOfWeek >= 5 {
			isWeekend = 1
		}

		// Average 3 transactions per day
		frequency := float64(poisson(rng, 3))

		// Most locations and IPs are low risk
		locationRisk := Beta(rng, 2, 5)
		ipRisk := Beta(rng, 1, 10)

		// Average 8 hours between transactions
		timeSinceLast := rng.ExpFloat64() * 8

		// Average 1 year old account
		accountAge := rng.ExpFloat64()*365 + 30

		fv := domain.FeatureVector{
			Amount:               amount,
			HourOfDay:            hour,
			DayOfWeek:            dayOfWeek,
			IsWeekend:            isWeekend,
			AmountCategory:       domain.AmountBucket(amount),
			TransactionFrequency: frequency,
			LocationRisk:         locationRisk,
			IPRisk:               ipRisk,
			TimeSinceLast:        timeSinceLast,
			AccountAgeDays:       accountAge,
		}

		samples = append(samples, Sample{
			Features:   fv,
			Fraudulent: rng.Float64() < fraudProbability(&fv),
		})
	}

	return samples
}

// fraudProbability accumulates weighted indicator contributions into a
// label probability.
func fraudProbability(f *domain.FeatureVector) float64 {
	p := 0.0
	if f.Amount > 1000 {
		p += 0.3
	}
	if f.HourOfDay < 6 || f.HourOfDay > 22 {
		p += 0.2
	}
	if f.LocationRisk > 0.8 {
		p += 0.4
	}
	if f.IPRisk > 0.8 {
		p += 0.4
	}
	if f.TransactionFrequency > 10 {
		p += 0.3
	}
	if f.TimeSinceLast < 1 {
		p += 0.2
	}
	return p
}
