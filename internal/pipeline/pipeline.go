package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/observability"
	"github.com/couchcryptid/delivery-eta-service/internal/refdata"
)

// ReadinessChecker is implemented by predictors that can report whether
// they are able to serve.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// EventPublisher writes prediction events to the sink.
type EventPublisher interface {
	PublishBatch(ctx context.Context, events []domain.PredictionEvent) error
}

// Result is the outcome of one submission. Features is always populated so
// the caller can show what was sent even when prediction failed.
type Result struct {
	EtaDays  float64              `json:"eta_days"`
	Features domain.OrderFeatures `json:"features"`
}

// Estimator ties reference data, the feature assembler, and a predictor
// together. It holds no per-client state; callers own their LocationState.
type Estimator struct {
	ref       refdata.Reference
	assembler *domain.Assembler
	predictor domain.Predictor
	publisher EventPublisher
	events    chan domain.PredictionEvent
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

const (
	defaultQueueSize = 256
	defaultBatchSize = 50
)

// New creates an Estimator. Pass a nil publisher to disable prediction events.
func New(ref refdata.Reference, schema domain.FeatureSchema, predictor domain.Predictor, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Estimator {
	e := &Estimator{
		ref:       ref,
		assembler: domain.NewAssembler(schema),
		predictor: predictor,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		batchSize: defaultBatchSize,
	}
	if publisher != nil {
		e.events = make(chan domain.PredictionEvent, defaultQueueSize)
	}
	e.recordReference()
	return e
}

func (e *Estimator) recordReference() {
	loaded := func(ok bool) float64 {
		if ok {
			return 1
		}
		return 0
	}
	e.metrics.ReferenceLoaded.WithLabelValues("snapshot").Set(loaded(e.ref.CatalogLoaded()))
	e.metrics.ReferenceLoaded.WithLabelValues("zip_lookup").Set(loaded(e.ref.Zips != nil))
	e.metrics.ZipTableEntries.Set(float64(e.ref.Zips.Len()))
}

// Reference returns the reference data the estimator was built with.
func (e *Estimator) Reference() refdata.Reference { return e.ref }

// Schema returns the feature schema every prediction uses.
func (e *Estimator) Schema() domain.FeatureSchema { return e.assembler.Schema() }

// NewLocation returns the starting location for a new form session.
func (e *Estimator) NewLocation() domain.LocationState {
	return domain.NewLocationState(e.ref.Defaults())
}

// Resolve looks up a postal-code prefix without touching any session.
func (e *Estimator) Resolve(prefix int) domain.LocationMatch {
	m := domain.Resolve(e.ref.Zips, prefix, e.ref.Defaults())
	e.recordLookup(m)
	return m
}

// Match resolves prefix for display. Unlike Resolve it records nothing, so
// re-rendering a session does not count as a lookup.
func (e *Estimator) Match(prefix int) domain.LocationMatch {
	return domain.Resolve(e.ref.Zips, prefix, e.ref.Defaults())
}

// SetZipPrefix applies a prefix change to loc. Only an actual change counts
// as a lookup.
func (e *Estimator) SetZipPrefix(loc *domain.LocationState, prefix int) domain.LocationMatch {
	changed := prefix != loc.ZipPrefix
	m := loc.SetZipPrefix(e.ref.Zips, prefix, e.ref.Defaults())
	if changed {
		e.recordLookup(m)
	}
	return m
}

// EditLocation applies manual overrides to loc in advanced mode.
func (e *Estimator) EditLocation(loc *domain.LocationState, edit domain.LocationEdit) error {
	return loc.Edit(e.ref.Catalog, edit)
}

func (e *Estimator) recordLookup(m domain.LocationMatch) {
	if m.Found {
		e.metrics.ZipLookups.WithLabelValues("hit").Inc()
		return
	}
	e.metrics.ZipLookups.WithLabelValues("miss").Inc()
	e.logger.Debug("zip prefix not found", "prefix", m.Prefix, "table_loaded", e.ref.Zips != nil)
}

// Preview assembles the feature row without predicting.
func (e *Estimator) Preview(loc domain.LocationState, order domain.OrderFields) domain.OrderFeatures {
	return e.assembler.Assemble(loc, e.ref.Catalog, order)
}

// Estimate assembles the feature row and asks the predictor for a delivery
// time. Successful estimates are queued for publishing.
func (e *Estimator) Estimate(ctx context.Context, loc domain.LocationState, order domain.OrderFields) (Result, error) {
	res := Result{Features: e.Preview(loc, order)}

	start := time.Now()
	eta, err := e.predictor.Predict(ctx, res.Features)
	e.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.Predictions.WithLabelValues(outcome(err)).Inc()
		e.logger.Error("prediction failed",
			"error", err,
			"source", e.source(),
			"zip_prefix", res.Features.ZipCodePrefix,
		)
		return res, err
	}

	res.EtaDays = eta
	e.metrics.Predictions.WithLabelValues("success").Inc()
	e.logger.Info("prediction",
		"eta_days", eta,
		"zip_prefix", res.Features.ZipCodePrefix,
		"state", res.Features.CustomerState,
		"category", res.Features.MainProductCategory,
	)
	e.enqueue(domain.NewPredictionEvent(res.Features, eta, e.source()))
	return res, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, domain.ErrModelLoad):
		return "model_load"
	default:
		return "error"
	}
}

func (e *Estimator) source() string {
	if s, ok := e.predictor.(interface{ Source() string }); ok {
		return s.Source()
	}
	return "unknown"
}

// CheckReadiness delegates to the predictor when it can report readiness.
func (e *Estimator) CheckReadiness(ctx context.Context) error {
	if rc, ok := e.predictor.(ReadinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}
