package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors line up with the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type zipRequest struct {
	ZipCodePrefix *int `json:"zip_code_prefix" validate:"required,gte=0,lte=99999"`
}

type advancedRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type locationRequest struct {
	City  *string  `json:"city,omitempty" validate:"omitempty,min=1"`
	State *string  `json:"state,omitempty" validate:"omitempty,len=2"`
	Lat   *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng   *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

func (r locationRequest) edit() domain.LocationEdit {
	return domain.LocationEdit{City: r.City, State: r.State, Lat: r.Lat, Lng: r.Lng}
}

// requestError is a client error carrying per-field messages.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

// decodeJSON reads a single JSON object into dst and validates it. Fields the
// body omits keep whatever dst already holds.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &requestError{msg: "request body is empty"}
		}
		return &requestError{msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if dec.More() {
		return &requestError{msg: "request body must hold a single JSON object"}
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &requestError{msg: "invalid request", fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "min":
		return "must not be empty"
	default:
		return "failed " + fe.Tag()
	}
}

// checkOrder validates order fields and, when a catalog is loaded, that the
// category is one it knows.
func checkOrder(order domain.OrderFields, c domain.Catalog) error {
	err := validateStruct(order)
	var reqErr *requestError
	if err != nil && !errors.As(err, &reqErr) {
		return err
	}

	category := strings.TrimSpace(order.MainProductCategory)
	if avail, ok := c.(domain.CatalogAvailable); ok && category != "" && !avail.HasCategory(category) {
		if reqErr == nil {
			reqErr = &requestError{msg: "invalid request", fields: map[string]string{}}
		}
		reqErr.fields[domain.ColMainProductCategory] = "unknown category"
	}
	if reqErr != nil {
		return reqErr
	}
	return nil
}

func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: reqErr.msg, Fields: reqErr.fields})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

const prefixRangeMessage = "zip prefix must be an integer between 0 and 99999"

// advisory is the message shown next to the postal-code field.
func advisory(m domain.LocationMatch, tableLoaded bool) string {
	switch {
	case !tableLoaded:
		return "zip lookup table not loaded: enter city, state, and coordinates in advanced options"
	case m.Found:
		return fmt.Sprintf("zip prefix found: autocompleted %s (%s)", m.Location.City, m.Location.State)
	default:
		return "zip prefix not found: enable advanced options to enter city, state, and coordinates manually"
	}
}
