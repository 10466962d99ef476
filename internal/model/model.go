// Package model implements the trainable risk-model ensemble: a random
// forest classifier, an isolation forest anomaly detector, and the
// feature preprocessing artifacts (standard scaler, label encoder).
// All artifacts serialize to portable JSON rule tables rather than an
// opaque binary format.
package model

import (
	"errors"
	"time"
)

var (
	// ErrUnseenCategory is returned when a categorical value was not
	// present during training.
	ErrUnseenCategory = errors.New("unseen categorical value")

	// ErrTrainingFailed is returned when a dataset is too small or
	// degenerate to fit the ensemble.
	ErrTrainingFailed = errors.New("training failed")

	// ErrArtifactCorrupt is returned when a persisted artifact is
	// missing or fails to deserialize.
	ErrArtifactCorrupt = errors.New("artifact missing or corrupt")

	// ErrNotReady is returned when no bundle has been loaded or
	// trained yet.
	ErrNotReady = errors.New("model bundle not ready")
)

// Classifier predicts the probability of the fraud class for a scaled
// feature vector.
type Classifier interface {
	ScoreProbability(x []float64) float64
}

// AnomalyDetector scores how normal a scaled feature vector is.
// ScoreNormality returns a value in [0, 1]: 1 means entirely typical of
// the training population, 0 means maximally isolated. The native
// isolation-forest anomaly score s = 2^(-E[h(x)]/c(n)) lies in (0, 1]
// with higher values more anomalous; normality is defined as 1 - s.
type AnomalyDetector interface {
	ScoreNormality(x []float64) float64
}

// Bundle is the trained ensemble plus preprocessing artifacts. A bundle
// is immutable once constructed; retraining produces a fresh bundle
// that replaces the old one as a unit.
type Bundle struct {
	Classifier *Forest          `json:"-"`
	Detector   *IsolationForest `json:"-"`
	Scaler     *StandardScaler  `json:"-"`
	Encoder    *LabelEncoder    `json:"-"`

	Manifest Manifest `json:"manifest"`
}

// Manifest describes a trained bundle.
type Manifest struct {
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trainedAt"`
	Samples   int       `json:"samples"`
}
