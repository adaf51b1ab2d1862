package view

import "github.com/goliatone/go-estimator/pkg/model"

// ControlKind tells a renderer which widget to draw.
type ControlKind string

const (
	ControlSelect ControlKind = "select"
	ControlRadio  ControlKind = "radio"
	ControlNumber ControlKind = "number"
)

// Choice is one entry of a select or radio group.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	Selected bool   `json:"selected"`
}

// Control is a render-ready form field.
type Control struct {
	Name        model.FieldName `json:"name"`
	Label       string          `json:"label"`
	Kind        ControlKind     `json:"kind"`
	Value       string          `json:"value"`
	Prompt      string          `json:"prompt"`
	Placeholder string          `json:"placeholder"`
	Choices     []Choice        `json:"choices,omitempty"`
	Min         string          `json:"min"`
	Max         string          `json:"max"`
	Step        string          `json:"step"`
	Enabled     bool            `json:"enabled"`
	Busy        bool            `json:"busy"`
}

// Notice is the placeholder or loading panel.
type Notice struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ErrorPanel shows a failed submission.
type ErrorPanel struct {
	Icon    string `json:"icon"`
	Heading string `json:"heading"`
	Message string `json:"message"`
}

// Detail is one card of the property information grid.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// InsightCard is a rendered insight.
type InsightCard struct {
	Type        model.InsightType `json:"type"`
	Icon        string            `json:"icon"`
	Title       string            `json:"title"`
	Value       string            `json:"value"`
	Description string            `json:"description"`
}

// ResultPanel shows a successful prediction.
type ResultPanel struct {
	Label         string        `json:"label"`
	Price         string        `json:"price"`
	PricePerSqft  string        `json:"price_per_sqft"`
	Confidence    string        `json:"confidence"`
	HasConfidence bool          `json:"has_confidence"`
	RangeLower    string        `json:"range_lower"`
	RangeUpper    string        `json:"range_upper"`
	HasRange      bool          `json:"has_range"`
	DetailsTitle  string        `json:"details_title"`
	Details       []Detail      `json:"details,omitempty"`
	Insights      []InsightCard `json:"insights,omitempty"`
}

// RenderModel is everything a renderer needs for one frame. Exactly one of
// Placeholder, Loading, Error and Result is set, matching Kind.
type RenderModel struct {
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Banner      string    `json:"banner"`
	Controls    []Control `json:"controls,omitempty"`
	CanSubmit   bool      `json:"can_submit"`
	CanClear    bool      `json:"can_clear"`
	SubmitLabel string    `json:"submit_label"`
	ClearLabel  string    `json:"clear_label"`

	Kind        model.ViewKind `json:"kind"`
	Placeholder *Notice        `json:"placeholder,omitempty"`
	Loading     *Notice        `json:"loading,omitempty"`
	Error       *ErrorPanel    `json:"error,omitempty"`
	Result      *ResultPanel   `json:"result,omitempty"`
}

// Control returns the control for name.
func (m RenderModel) Control(name model.FieldName) (Control, bool) {
	for _, c := range m.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}
