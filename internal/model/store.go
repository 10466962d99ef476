package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/asrieldev/secureBank/internal/dataset"
	"github.com/asrieldev/secureBank/internal/domain"
)

// Artifact file names under the artifacts directory. Absence of any
// one forces a full retrain.
const (
	fileForest  = "forest.json"
	fileOutlier = "isolation_forest.json"
	fileScaler  = "scaler.json"
	fileEncoder = "encoders.json"
)

// Store owns the current model bundle and the load-or-train decision.
// The bundle lives behind an atomic pointer: scoring readers never
// block and never observe a partially constructed bundle; retraining
// builds and persists a complete replacement before swapping it in.
type Store struct {
	dir   string
	cfg   domain.ModelConfig
	synth *dataset.Synthesizer

	bundle  atomic.Pointer[Bundle]
	metrics atomic.Pointer[Metrics]

	// trainMu serializes retrains; it is never taken on the scoring
	// path.
	trainMu sync.Mutex
}

// encodersFile bundles the encoder with the manifest so the artifact
// set stays at four files.
type encodersFile struct {
	AmountCategory *LabelEncoder `json:"amountCategory"`
	Manifest       Manifest      `json:"manifest"`
}

// NewStore creates a store over the configured artifacts directory.
func NewStore(cfg domain.ModelConfig) *Store {
	return &Store{
		dir:   cfg.ArtifactsDir,
		cfg:   cfg,
		synth: dataset.NewSynthesizer(cfg.Seed),
	}
}

// Load reads a previously persisted bundle, falling back to a full
// synthesize-train-persist cycle when any artifact is missing or
// corrupt. It reports whether a fresh training run happened.
func (s *Store) Load(ctx context.Context) (trained bool, err error) {
	bundle, loadErr := s.readBundle()
	if loadErr == nil {
		s.bundle.Store(bundle)
		slog.Info("loaded risk model bundle",
			"dir", s.dir,
			"trained_at", bundle.Manifest.TrainedAt,
			"samples", bundle.Manifest.Samples,
		)
		return false, nil
	}

	slog.Warn("model artifacts unavailable, training fresh bundle", "error", loadErr)
	if err := s.Retrain(ctx, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Retrain unconditionally reruns the synthesize-and-train path and
// atomically replaces the in-memory bundle after persisting it.
// newData is accepted for interface compatibility but unused: retrains
// always resynthesize from scratch.
func (s *Store) Retrain(ctx context.Context, newData []dataset.Sample) error {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	if len(newData) > 0 {
		slog.Warn("retrain ignores supplied data and resynthesizes in full", "supplied", len(newData))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n := s.cfg.SyntheticSamples
	if n <= 0 {
		n = 20000
	}
	samples := s.synth.Generate(n)

	if err := ctx.Err(); err != nil {
		return err
	}

	bundle, metrics, err := Train(samples, TrainConfig{
		Trees:         s.cfg.Trees,
		MaxDepth:      s.cfg.MaxDepth,
		Contamination: s.cfg.Contamination,
		Seed:          s.cfg.Seed,
	})
	if err != nil {
		return err
	}

	slog.Info("risk models trained",
		"samples", n,
		"fraud_precision", metrics.Fraud.Precision,
		"fraud_recall", metrics.Fraud.Recall,
		"accuracy", metrics.Accuracy,
	)

	if err := s.persist(bundle); err != nil {
		return fmt.Errorf("failed to persist model bundle: %w", err)
	}

	s.metrics.Store(metrics)
	s.bundle.Store(bundle)
	return nil
}

// Bundle returns the current bundle, or ErrNotReady before the first
// successful Load or Retrain.
func (s *Store) Bundle() (*Bundle, error) {
	b := s.bundle.Load()
	if b == nil {
		return nil, ErrNotReady
	}
	return b, nil
}

// Metrics returns the diagnostics from the last training run, or nil
// when the bundle was loaded from disk.
func (s *Store) Metrics() *Metrics {
	return s.metrics.Load()
}

func (s *Store) readBundle() (*Bundle, error) {
	var forest Forest
	if err := s.readArtifact(fileForest, &forest); err != nil {
		return nil, err
	}
	var detector IsolationForest
	if err := s.readArtifact(fileOutlier, &detector); err != nil {
		return nil, err
	}
	var scaler StandardScaler
	if err := s.readArtifact(fileScaler, &scaler); err != nil {
		return nil, err
	}
	var encoders encodersFile
	if err := s.readArtifact(fileEncoder, &encoders); err != nil {
		return nil, err
	}

	if len(forest.Trees) == 0 || len(detector.Trees) == 0 {
		return nil, fmt.Errorf("%w: empty model", ErrArtifactCorrupt)
	}
	if encoders.AmountCategory == nil || len(encoders.AmountCategory.Classes) == 0 {
		return nil, fmt.Errorf("%w: empty encoder", ErrArtifactCorrupt)
	}
	// Schema drift between the fitted scaler and the current feature
	// schema invalidates the whole bundle
	if !slices.Equal(scaler.Features, domain.FeatureNames()) {
		return nil, fmt.Errorf("%w: feature schema mismatch", ErrArtifactCorrupt)
	}

	return &Bundle{
		Classifier: &forest,
		Detector:   &detector,
		Scaler:     &scaler,
		Encoder:    encoders.AmountCategory,
		Manifest:   encoders.Manifest,
	}, nil
}

func (s *Store) readArtifact(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, name, err)
	}
	return nil
}

func (s *Store) persist(b *Bundle) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	artifacts := map[string]any{
		fileForest:  b.Classifier,
		fileOutlier: b.Detector,
		fileScaler:  b.Scaler,
		fileEncoder: encodersFile{AmountCategory: b.Encoder, Manifest: b.Manifest},
	}

	for name, v := range artifacts {
		if err := s.writeArtifact(name, v); err != nil {
			return err
		}
	}
	return nil
}

// writeArtifact writes to a temp file and renames so a crash mid-write
// never leaves a truncated artifact behind.
func (s *Store) writeArtifact(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}
