package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/asrieldev/secureBank/internal/dataset"
	"github.com/asrieldev/secureBank/internal/domain"
)

// EngineVersion identifies the model format. Bump when the artifact
// layout changes incompatibly.
const EngineVersion = "securebank-risk-1.0"

// minTrainingSamples is the smallest dataset the trainer accepts.
const minTrainingSamples = 50

// TrainConfig configures a training run.
type TrainConfig struct {
	Trees         int
	MaxDepth      int
	Contamination float64
	Seed          int64
	TestFraction  float64
}

// ClassMetrics holds held-out precision/recall for one class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Support   int     `json:"support"`
}

// Metrics is the held-out evaluation report. It is a diagnostic only;
// training succeeds regardless of the measured quality.
type Metrics struct {
	Legit    ClassMetrics `json:"legit"`
	Fraud    ClassMetrics `json:"fraud"`
	Accuracy float64      `json:"accuracy"`
	TestSize int          `json:"testSize"`
}

// Train fits the full ensemble over a labeled dataset: label encoder
// for the amount category, standard scaler over all features, the
// classifier forest on a stratified train split, and the isolation
// forest on all scaled rows (unlabeled).
func Train(samples []dataset.Sample, cfg TrainConfig) (*Bundle, *Metrics, error) {
	if len(samples) < minTrainingSamples {
		return nil, nil, fmt.Errorf("%w: %d samples, need at least %d", ErrTrainingFailed, len(samples), minTrainingSamples)
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}

	// The amount-category domain is closed, so the encoder is fitted
	// over the full bucket set rather than the observed values. Small
	// training sets may not draw every bucket, and a bucket missing
	// from the encoder would push every transaction in it to the
	// neutral fallback at scoring time.
	encoder := FitEncoder([]string{domain.CategorySmall, domain.CategoryMedium, domain.CategoryLarge})

	rows := make([][]float64, len(samples))
	labels := make([]bool, len(samples))
	for i := range samples {
		code, err := encoder.Encode(samples[i].Features.AmountCategory)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
		}
		rows[i] = samples[i].Features.Raw(code)
		labels[i] = samples[i].Fraudulent
	}

	scaler, err := FitScaler(rows, domain.FeatureNames())
	if err != nil {
		return nil, nil, err
	}
	scaled, err := scaler.TransformAll(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	trainIdx, testIdx, err := stratifiedSplit(labels, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	trainRows := make([][]float64, len(trainIdx))
	trainLabels := make([]bool, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = scaled[idx]
		trainLabels[i] = labels[idx]
	}

	forest, err := FitForest(trainRows, trainLabels, cfg.Trees, cfg.MaxDepth, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	// The detector ignores labels: it learns the shape of the whole
	// population
	detector, err := FitIsolationForest(scaled, cfg.Trees, cfg.Contamination, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	metrics := evaluate(forest, scaled, labels, testIdx)

	bundle := &Bundle{
		Classifier: forest,
		Detector:   detector,
		Scaler:     scaler,
		Encoder:    encoder,
		Manifest: Manifest{
			Version:   EngineVersion,
			TrainedAt: time.Now().UTC(),
			Samples:   len(samples),
		},
	}
	return bundle, metrics, nil
}

// stratifiedSplit shuffles each class separately and holds out
// testFraction of both, so the held-out set preserves class balance.
func stratifiedSplit(labels []bool, testFraction float64, seed int64) (train, test []int, err error) {
	rng := rand.New(rand.NewSource(seed))

	var pos, neg []int
	for i, l := range labels {
		if l {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return nil, nil, fmt.Errorf("%w: training set has a single class", ErrTrainingFailed)
	}

	for _, class := range [][]int{neg, pos} {
		rng.Shuffle(len(class), func(a, b int) { class[a], class[b] = class[b], class[a] })
		cut := int(float64(len(class)) * testFraction)
		test = append(test, class[:cut]...)
		train = append(train, class[cut:]...)
	}
	return train, test, nil
}

// evaluate computes per-class precision/recall on the held-out rows.
func evaluate(forest *Forest, scaled [][]float64, labels []bool, testIdx []int) *Metrics {
	var tp, fp, tn, fn int
	for _, idx := range testIdx {
		pred := forest.Predict(scaled[idx])
		switch {
		case pred && labels[idx]:
			tp++
		case pred && !labels[idx]:
			fp++
		case !pred && !labels[idx]:
			tn++
		default:
			fn++
		}
	}

	m := &Metrics{TestSize: len(testIdx)}
	m.Fraud = ClassMetrics{
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
		Support:   tp + fn,
	}
	m.Legit = ClassMetrics{
		Precision: ratio(tn, tn+fn),
		Recall:    ratio(tn, tn+fp),
		Support:   tn + fp,
	}
	m.Accuracy = ratio(tp+tn, len(testIdx))
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
