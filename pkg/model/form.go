package model

import "strings"

// FieldName identifies an editable form control. Values match the JSON keys
// the prediction service expects.
type FieldName string

const (
	FieldCity         FieldName = "city"
	FieldArea         FieldName = "area"
	FieldPropertyType FieldName = "property_type"
	FieldBHK          FieldName = "bhk"
	FieldSqft         FieldName = "sqft"
	FieldFloor        FieldName = "floor"
	FieldAge          FieldName = "age"
)

var fieldLabels = map[FieldName]string{
	FieldCity:         "City",
	FieldArea:         "Location",
	FieldPropertyType: "Property Type",
	FieldBHK:          "Bedrooms",
	FieldSqft:         "Built-up Area",
	FieldFloor:        "Floor",
	FieldAge:          "Property Age",
}

// FieldNames returns the controls in display order. The city control is only
// included when cityScoping is enabled.
func FieldNames(cityScoping bool) []FieldName {
	names := make([]FieldName, 0, 7)
	if cityScoping {
		names = append(names, FieldCity)
	}
	return append(names, FieldArea, FieldPropertyType, FieldBHK, FieldSqft, FieldFloor, FieldAge)
}

// Valid reports whether the name is a known control.
func (f FieldName) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// Label returns the human label shown next to the control.
func (f FieldName) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

// ParseFieldName normalises user supplied names ("property-type", "BHK").
func ParseFieldName(raw string) (FieldName, bool) {
	name := FieldName(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	return name, name.Valid()
}

// PropertyType enumerates the dwelling categories the service understands.
type PropertyType string

const (
	PropertyTypeApartment        PropertyType = "Apartment"
	PropertyTypeIndependentHouse PropertyType = "Independent House"
	PropertyTypeVilla            PropertyType = "Villa"
	PropertyTypePenthouse        PropertyType = "Penthouse"
)

// FormInput is the typed payload sent to the prediction endpoint and echoed
// back in successful responses.
type FormInput struct {
	City         string       `json:"city,omitempty" yaml:"city,omitempty"`
	Area         string       `json:"area" yaml:"area" validate:"required"`
	PropertyType PropertyType `json:"property_type" yaml:"property_type" validate:"required"`
	BHK          int          `json:"bhk" yaml:"bhk" validate:"min=1,max=5"`
	Sqft         float64      `json:"sqft" yaml:"sqft" validate:"gte=100"`
	Floor        int          `json:"floor" yaml:"floor" validate:"min=1,max=20"`
	Age          int          `json:"age" yaml:"age" validate:"min=0,max=50"`
}

// ReferenceData holds the option lists backing the select controls. Cities is
// nil when city scoping is disabled.
type ReferenceData struct {
	Cities        []string `json:"cities,omitempty"`
	Areas         []string `json:"areas"`
	PropertyTypes []string `json:"property_types"`
}

// Clone returns a deep copy of the lists.
func (r ReferenceData) Clone() ReferenceData {
	return ReferenceData{
		Cities:        cloneStrings(r.Cities),
		Areas:         cloneStrings(r.Areas),
		PropertyTypes: cloneStrings(r.PropertyTypes),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
