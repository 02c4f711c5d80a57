package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Predictor estimates delivery time in days for one feature row.
type Predictor interface {
	Predict(ctx context.Context, features OrderFeatures) (float64, error)
}

// PredictionEvent records one successful estimate for offline evaluation.
type PredictionEvent struct {
	ID          string        `json:"id"`
	Features    OrderFeatures `json:"features"`
	EtaDays     float64       `json:"eta_days"`
	ModelSource string        `json:"model_source"`
	PredictedAt time.Time     `json:"predicted_at"`
}

// NewPredictionEvent stamps an estimate with a fresh ID and the current time.
func NewPredictionEvent(features OrderFeatures, etaDays float64, source string) PredictionEvent {
	return PredictionEvent{
		ID:          uuid.NewString(),
		Features:    features,
		EtaDays:     etaDays,
		ModelSource: source,
		PredictedAt: Now().UTC(),
	}
}
