package domain

import "fmt"

// LocationState is the location being edited in one form session. It is
// owned by the caller and mutated only through SetZipPrefix, SetAdvanced,
// and Edit.
type LocationState struct {
	ZipPrefix int     `json:"zip_code_prefix"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Advanced  bool    `json:"advanced"`
}

// LocationEdit carries manual overrides; nil fields are left unchanged.
type LocationEdit struct {
	City  *string  `json:"city,omitempty"`
	State *string  `json:"state,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

// NewLocationState returns the session start state.
func NewLocationState(defaults Coordinates) LocationState {
	return LocationState{
		ZipPrefix: DefaultZipPrefix,
		City:      DefaultCity,
		State:     DefaultState,
		Lat:       defaults.Lat,
		Lng:       defaults.Lng,
	}
}

// SetZipPrefix records a new prefix. When it differs from the current one and
// the table knows it, city, state, and coordinates are overwritten; on a miss
// they are kept. The returned match reflects the current prefix either way.
func (s *LocationState) SetZipPrefix(table *ZipTable, prefix int, defaults Coordinates) LocationMatch {
	if prefix != s.ZipPrefix {
		s.ZipPrefix = prefix
		if m := Resolve(table, prefix, defaults); m.Found {
			s.City = m.Location.City
			s.State = m.Location.State
			s.Lat = m.Location.Lat
			s.Lng = m.Location.Lng
			return m
		}
	}
	return Resolve(table, s.ZipPrefix, defaults)
}

// SetAdvanced toggles manual location editing.
func (s *LocationState) SetAdvanced(on bool) {
	s.Advanced = on
}

// Edit applies manual overrides. It fails without touching the state when
// advanced mode is off, when the state code is not Brazilian, or when a
// catalog is loaded and does not know the city.
func (s *LocationState) Edit(c Catalog, e LocationEdit) error {
	if !s.Advanced {
		return ErrAdvancedModeDisabled
	}

	next := *s
	if e.State != nil {
		state := NormalizeState(*e.State)
		if !IsBrazilianState(state) {
			return fmt.Errorf("%w: %q", ErrUnknownState, *e.State)
		}
		next.State = state
	}
	if e.City != nil {
		city := NormalizeCity(*e.City)
		if avail, ok := c.(CatalogAvailable); ok && !avail.HasCity(city) {
			return fmt.Errorf("%w: %q", ErrUnknownCity, *e.City)
		}
		next.City = city
	}
	if e.Lat != nil {
		next.Lat = *e.Lat
	}
	if e.Lng != nil {
		next.Lng = *e.Lng
	}

	*s = next
	return nil
}
