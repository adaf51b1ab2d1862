package orchestrator

import "github.com/goliatone/go-estimator/pkg/model"

// Snapshot is an immutable copy of the orchestrator state.
type Snapshot struct {
	CityScoping bool
	Values      map[model.FieldName]string
	Reference   model.ReferenceData
	View        model.ViewState
	// Banner is the persistent reference load error, empty once lists load.
	Banner string
	// Ready is true after the static lists loaded successfully.
	Ready bool
	// AreasLoading is true while an area fetch for the selected city runs.
	AreasLoading bool
	Missing      []model.FieldName
	// Sequence grows with every submission and every supersession.
	Sequence uint64
	// Version grows with every state change. Change hooks never observe it
	// going backwards.
	Version uint64
}

// Value returns the raw value of name.
func (s Snapshot) Value(name model.FieldName) string {
	return s.Values[name]
}

// Complete reports whether every required field has a value.
func (s Snapshot) Complete() bool {
	return len(s.Missing) == 0
}

// Fields lists the active controls in display order.
func (s Snapshot) Fields() []model.FieldName {
	return model.FieldNames(s.CityScoping)
}
