package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/session"
)

//go:embed templates/form.html
var templatesFS embed.FS

var formTemplate = template.Must(template.New("form.html").
	Funcs(template.FuncMap{"coord": formatCoordinate}).
	ParseFS(templatesFS, "templates/form.html"))

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type formView struct {
	SessionID       string
	Location        domain.LocationState
	Found           bool
	Advisory        string
	States          []string
	Cities          []string
	CityListed      bool
	Categories      []string
	Weekdays        []string
	Order           domain.OrderFields
	ShowOrderStatus bool
	Errors          map[string]string

	Columns       []string
	Features      *domain.OrderFeatures
	FeatureValues map[string]any

	Submitted    bool
	EtaDays      float64
	PredictError string
}

func (s *Server) newFormView(sess session.Session) *formView {
	ref := s.estimator.Reference()
	v := &formView{
		SessionID:       sess.ID,
		Location:        sess.Location,
		States:          domain.BrazilianStates,
		Weekdays:        weekdays,
		Order:           domain.DefaultOrderFields(ref.Catalog),
		ShowOrderStatus: s.estimator.Schema().IncludeOrderStatus,
		Errors:          map[string]string{},
		Columns:         s.estimator.Schema().Columns(),
	}
	if avail, ok := ref.Catalog.(domain.CatalogAvailable); ok {
		v.Cities = avail.Cities()
		v.Categories = avail.Categories()
		v.CityListed = avail.HasCity(sess.Location.City)
	}
	m := s.estimator.Match(sess.Location.ZipPrefix)
	v.Found = m.Found
	v.Advisory = advisory(m, ref.Zips != nil)
	return v
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create(s.estimator.NewLocation())
	s.renderForm(w, http.StatusOK, s.newFormView(sess))
}

// formSession returns the session named by the hidden session_id field, or a
// fresh one when it is missing or was evicted.
func (s *Server) formSession(r *http.Request) session.Session {
	if id := r.PostForm.Get("session_id"); id != "" {
		if sess, err := s.sessions.Get(id); err == nil {
			return sess
		}
		s.logger.Debug("form session not found, starting a new one", "session_id", id)
	}
	return s.sessions.Create(s.estimator.NewLocation())
}

// handleFormSubmit applies the posted prefix and advanced options to the
// form's session, then previews or predicts. Posted location overrides are
// ignored when the prefix changed in the same submission, since the browser
// re-sends the fields rendered for the previous prefix.
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	fieldErrs := map[string]string{}

	sess, err := s.sessions.Update(s.formSession(r).ID, func(loc *domain.LocationState) error {
		prefixChanged := false
		if raw := strings.TrimSpace(r.PostForm.Get("zip_code_prefix")); raw != "" {
			if prefix, ok := domain.ParsePrefix(raw); ok {
				prefixChanged = prefix != loc.ZipPrefix
				s.estimator.SetZipPrefix(loc, prefix)
			} else {
				fieldErrs["zip_code_prefix"] = prefixRangeMessage
			}
		}

		loc.SetAdvanced(r.PostForm.Get("advanced") == "on")
		if !loc.Advanced || prefixChanged {
			return nil
		}
		if edit, err := formEdit(r, *loc); err != nil {
			fieldErrs["location"] = err.Error()
		} else if err := s.estimator.EditLocation(loc, edit); err != nil {
			fieldErrs["location"] = err.Error()
		}
		return nil
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}

	v := s.newFormView(sess)
	formOrder(r, &v.Order, fieldErrs)
	if len(fieldErrs) == 0 {
		var reqErr *requestError
		if err := checkOrder(v.Order, s.estimator.Reference().Catalog); errors.As(err, &reqErr) {
			for k, msg := range reqErr.fields {
				fieldErrs[k] = msg
			}
		}
	}
	v.Errors = fieldErrs
	if len(fieldErrs) > 0 {
		s.renderForm(w, http.StatusBadRequest, v)
		return
	}

	features := s.estimator.Preview(sess.Location, v.Order)
	v.Features = &features
	v.FeatureValues = features.Values()

	if r.PostForm.Get("action") == "predict" {
		v.Submitted = true
		res, err := s.estimator.Estimate(r.Context(), sess.Location, v.Order)
		if err != nil {
			v.PredictError = err.Error()
		} else {
			v.EtaDays = res.EtaDays
		}
	}
	s.renderForm(w, http.StatusOK, v)
}

func (s *Server) renderForm(w http.ResponseWriter, status int, v *formView) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, v); err != nil {
		s.logger.Error("render form failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

// formEdit collects the location fields that differ from what was rendered
// for loc, so re-posting an unchanged form is a no-op.
func formEdit(r *http.Request, loc domain.LocationState) (domain.LocationEdit, error) {
	var e domain.LocationEdit
	if city := strings.TrimSpace(r.PostForm.Get("city")); city != "" && domain.NormalizeCity(city) != loc.City {
		e.City = &city
	}
	if state := strings.TrimSpace(r.PostForm.Get("state")); state != "" && domain.NormalizeState(state) != loc.State {
		e.State = &state
	}
	for _, f := range []struct {
		name    string
		current float64
		dst     **float64
	}{{"lat", loc.Lat, &e.Lat}, {"lng", loc.Lng, &e.Lng}} {
		raw := strings.TrimSpace(r.PostForm.Get(f.name))
		if raw == "" || raw == formatCoordinate(f.current) {
			continue
		}
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.LocationEdit{}, errors.New(f.name + " must be a number")
		}
		*f.dst = &x
	}
	return e, nil
}

// formatCoordinate renders a coordinate the way the form's inputs show it.
func formatCoordinate(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// formOrder overwrites defaults with whatever fields the form posted.
func formOrder(r *http.Request, o *domain.OrderFields, errs map[string]string) {
	if v := strings.TrimSpace(r.PostForm.Get(domain.ColMainProductCategory)); v != "" {
		o.MainProductCategory = v
	}
	o.OrderStatus = strings.TrimSpace(r.PostForm.Get(domain.ColOrderStatus))

	ints := []struct {
		name string
		dst  *int
	}{
		{domain.ColTotalItems, &o.TotalItems},
		{domain.ColPaymentInstallments, &o.PaymentInstallments},
		{domain.ColPurchaseHour, &o.PurchaseHour},
		{domain.ColPurchaseWeekday, &o.PurchaseWeekday},
	}
	for _, f := range ints {
		raw := strings.TrimSpace(r.PostForm.Get(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs[f.name] = "must be a whole number"
			continue
		}
		*f.dst = n
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{domain.ColTotalPrice, &o.TotalPrice},
		{domain.ColTotalFreight, &o.TotalFreight},
		{domain.ColPaymentValue, &o.PaymentValue},
		{domain.ColApprovalDelayHours, &o.ApprovalDelayHours},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(r.PostForm.Get(f.name))
		if raw == "" {
			continue
		}
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs[f.name] = "must be a number"
			continue
		}
		*f.dst = x
	}
}
