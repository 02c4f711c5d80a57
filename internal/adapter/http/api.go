package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/session"
)

type optionsResponse struct {
	CatalogLoaded   bool               `json:"catalog_loaded"`
	Cities          []string           `json:"cities"`
	Categories      []string           `json:"categories"`
	States          []string           `json:"states"`
	Defaults        domain.Coordinates `json:"defaults"`
	DefaultOrder    domain.OrderFields `json:"default_order"`
	ZipTableEntries int                `json:"zip_table_entries"`
	Columns         []string           `json:"columns"`
}

type resolveResponse struct {
	Match    domain.LocationMatch `json:"match"`
	Advisory string               `json:"advisory"`
}

type sessionResponse struct {
	Session  session.Session `json:"session"`
	Advisory string          `json:"advisory"`
}

type predictResponse struct {
	EtaDays  float64              `json:"eta_days"`
	Features domain.OrderFeatures `json:"features"`
}

type predictErrorResponse struct {
	errorResponse
	Features domain.OrderFeatures `json:"features"`
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	ref := s.estimator.Reference()
	resp := optionsResponse{
		CatalogLoaded:   ref.CatalogLoaded(),
		Cities:          []string{},
		Categories:      []string{},
		States:          domain.BrazilianStates,
		Defaults:        ref.Defaults(),
		DefaultOrder:    domain.DefaultOrderFields(ref.Catalog),
		ZipTableEntries: ref.Zips.Len(),
		Columns:         s.estimator.Schema().Columns(),
	}
	if avail, ok := ref.Catalog.(domain.CatalogAvailable); ok {
		resp.Cities = avail.Cities()
		resp.Categories = avail.Categories()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	prefix, ok := domain.ParsePrefix(r.PathValue("prefix"))
	if !ok {
		writeError(w, http.StatusBadRequest, prefixRangeMessage)
		return
	}
	m := s.estimator.Resolve(prefix)
	writeJSON(w, http.StatusOK, resolveResponse{
		Match:    m,
		Advisory: advisory(m, s.estimator.Reference().Zips != nil),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create(s.estimator.NewLocation())
	s.logger.Debug("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, s.sessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		writeSessionError(w, session.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetZip(w http.ResponseWriter, r *http.Request) {
	var req zipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	var match domain.LocationMatch
	sess, err := s.sessions.Update(r.PathValue("id"), func(loc *domain.LocationState) error {
		match = s.estimator.SetZipPrefix(loc, *req.ZipCodePrefix)
		return nil
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Session:  sess,
		Advisory: advisory(match, s.estimator.Reference().Zips != nil),
	})
}

func (s *Server) handleSetAdvanced(w http.ResponseWriter, r *http.Request) {
	var req advancedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	sess, err := s.sessions.Update(r.PathValue("id"), func(loc *domain.LocationState) error {
		loc.SetAdvanced(*req.Enabled)
		return nil
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleEditLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	sess, err := s.sessions.Update(r.PathValue("id"), func(loc *domain.LocationState) error {
		return s.estimator.EditLocation(loc, req.edit())
	})
	switch {
	case errors.Is(err, domain.ErrAdvancedModeDisabled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnknownState), errors.Is(err, domain.ErrUnknownCity):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeSessionError(w, err)
	default:
		writeJSON(w, http.StatusOK, s.sessionView(sess))
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, order, ok := s.orderRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.estimator.Preview(sess.Location, order))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	sess, order, ok := s.orderRequest(w, r)
	if !ok {
		return
	}

	res, err := s.estimator.Estimate(r.Context(), sess.Location, order)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, predictErrorResponse{
			errorResponse: errorResponse{Error: "prediction failed", Detail: err.Error()},
			Features:      res.Features,
		})
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{EtaDays: res.EtaDays, Features: res.Features})
}

// orderRequest loads the session and decodes order fields over the form
// defaults, so a body may carry only the fields it changes.
func (s *Server) orderRequest(w http.ResponseWriter, r *http.Request) (session.Session, domain.OrderFields, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return session.Session{}, domain.OrderFields{}, false
	}

	catalog := s.estimator.Reference().Catalog
	order := domain.DefaultOrderFields(catalog)
	if err := decodeJSON(w, r, &order); err != nil {
		writeRequestError(w, err)
		return session.Session{}, domain.OrderFields{}, false
	}
	if err := checkOrder(order, catalog); err != nil {
		writeRequestError(w, err)
		return session.Session{}, domain.OrderFields{}, false
	}
	return sess, order, true
}

func (s *Server) sessionView(sess session.Session) sessionResponse {
	m := s.estimator.Match(sess.Location.ZipPrefix)
	return sessionResponse{
		Session:  sess,
		Advisory: advisory(m, s.estimator.Reference().Zips != nil),
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
