package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-estimator/pkg/model"
)

// Change describes the effect of a single Set call.
type Change struct {
	Field    model.FieldName
	Previous string
	Value    string
	// Changed is false when the value was already set.
	Changed bool
	// AreaCleared reports that the area selection was dropped by a city change.
	AreaCleared bool
	// FetchAreas asks the caller to load areas for Value.
	FetchAreas bool
}

// Store holds raw control values and the option lists behind the selects.
// It is not safe for concurrent use; callers serialise access.
type Store struct {
	cityScoping bool
	values      map[model.FieldName]string
	refs        model.ReferenceData
}

// Option configures a Store.
type Option func(*Store)

// WithCityScoping enables the city control and per-city area lists.
func WithCityScoping(enabled bool) Option {
	return func(s *Store) {
		s.cityScoping = enabled
	}
}

// NewStore returns an empty store. City scoping is enabled by default.
func NewStore(options ...Option) *Store {
	s := &Store{
		cityScoping: true,
		values:      make(map[model.FieldName]string),
		refs:        model.ReferenceData{Areas: []string{}, PropertyTypes: []string{}},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if !s.cityScoping {
		delete(s.values, model.FieldCity)
	}
	return s
}

// CityScoping reports whether the city control is active.
func (s *Store) CityScoping() bool {
	return s.cityScoping
}

// Fields lists the active controls in display order.
func (s *Store) Fields() []model.FieldName {
	return model.FieldNames(s.cityScoping)
}

// Value returns the raw value for name.
func (s *Store) Value(name model.FieldName) string {
	return s.values[name]
}

// Values returns a copy of every non-empty value.
func (s *Store) Values() map[model.FieldName]string {
	out := make(map[model.FieldName]string, len(s.values))
	for k, v := range s.values {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Reference returns a copy of the option lists.
func (s *Store) Reference() model.ReferenceData {
	return s.refs.Clone()
}

// SetReference installs the static lists. In single-city mode the area list
// is part of the static data.
func (s *Store) SetReference(data model.ReferenceData) {
	if s.cityScoping {
		s.refs.Cities = cloneOrEmpty(data.Cities)
	} else {
		s.refs.Areas = cloneOrEmpty(data.Areas)
	}
	s.refs.PropertyTypes = cloneOrEmpty(data.PropertyTypes)
}

// SetAreas replaces the area options. A selected area missing from the new
// list is cleared; the return value reports whether that happened.
func (s *Store) SetAreas(areas []string) bool {
	s.refs.Areas = cloneOrEmpty(areas)
	current := s.values[model.FieldArea]
	if current != "" && !contains(s.refs.Areas, current) {
		delete(s.values, model.FieldArea)
		return true
	}
	return false
}

// Set assigns a raw value. Selecting a different city drops the area
// selection and requests a new area list.
func (s *Store) Set(name model.FieldName, value string) (Change, error) {
	if !name.Valid() {
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if name == model.FieldCity && !s.cityScoping {
		return Change{}, fmt.Errorf("%w: %s", ErrFieldDisabled, name)
	}
	value = strings.TrimSpace(value)

	if value != "" {
		if options, isSelect := s.options(name); isSelect && !contains(options, value) {
			return Change{}, fmt.Errorf("%w: %s=%q", ErrUnknownOption, name, value)
		}
	}

	previous := s.values[name]
	change := Change{Field: name, Previous: previous, Value: value, Changed: previous != value}
	if !change.Changed {
		return change, nil
	}

	if value == "" {
		delete(s.values, name)
	} else {
		s.values[name] = value
	}

	if name == model.FieldCity {
		if s.values[model.FieldArea] != "" {
			delete(s.values, model.FieldArea)
			change.AreaCleared = true
		}
		if value == "" {
			s.refs.Areas = []string{}
		} else {
			change.FetchAreas = true
		}
	}
	return change, nil
}

// Clear empties every field. With city scoping the area list is dropped as
// well since it belonged to the previous city.
func (s *Store) Clear() {
	s.values = make(map[model.FieldName]string)
	if s.cityScoping {
		s.refs.Areas = []string{}
	}
}

// Missing lists required fields that are still empty, in display order.
func (s *Store) Missing() []model.FieldName {
	var out []model.FieldName
	for _, name := range s.Fields() {
		if strings.TrimSpace(s.values[name]) == "" {
			out = append(out, name)
		}
	}
	return out
}

// Complete reports whether every required field has a value.
func (s *Store) Complete() bool {
	return len(s.Missing()) == 0
}

func (s *Store) options(name model.FieldName) ([]string, bool) {
	switch name {
	case model.FieldCity:
		return s.refs.Cities, true
	case model.FieldArea:
		return s.refs.Areas, true
	case model.FieldPropertyType:
		return s.refs.PropertyTypes, true
	default:
		return nil, false
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func cloneOrEmpty(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	return append([]string(nil), in...)
}
