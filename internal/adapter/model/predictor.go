// Package model implements the prediction service: a JSON artifact evaluated
// in-process, or a remote model server reached over HTTP.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
)

// ArtifactPredictor implements domain.Predictor by evaluating an artifact
// file. The file is read on every call so a replaced artifact takes effect on
// the next submission without a restart.
type ArtifactPredictor struct {
	path   string
	logger *slog.Logger
}

// NewArtifactPredictor creates a predictor for the artifact at path.
func NewArtifactPredictor(path string, logger *slog.Logger) *ArtifactPredictor {
	return &ArtifactPredictor{path: path, logger: logger}
}

// Source identifies this predictor in logs and prediction events.
func (p *ArtifactPredictor) Source() string { return "artifact:" + p.path }

// Predict loads the artifact, checks the column contract, and evaluates it.
func (p *ArtifactPredictor) Predict(ctx context.Context, features domain.OrderFeatures) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a, err := LoadArtifact(p.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}

	if diff := a.Diff(features.Schema().Columns()); !diff.Empty() {
		return 0, fmt.Errorf("%w: model %q missing %v, unexpected %v",
			domain.ErrSchemaMismatch, a.Name, diff.Missing, diff.Unexpected)
	}

	eta := a.Predict(features.Values())
	p.logger.Debug("artifact prediction", "model", a.Name, "kind", a.Kind, "eta_days", eta)
	return eta, nil
}

// CheckReadiness reports whether the artifact file exists.
func (p *ArtifactPredictor) CheckReadiness(_ context.Context) error {
	if _, err := os.Stat(p.path); err != nil {
		return fmt.Errorf("model artifact: %w", err)
	}
	return nil
}
