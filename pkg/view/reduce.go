package view

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/orchestrator"
)

// Fixed copy shown by every renderer.
const (
	FormTitle        = "Property Details"
	FormSubtitle     = "Enter your property information for an instant price estimate"
	SubmitLabel      = "Get Price Estimate"
	SubmitBusyLabel  = "Predicting..."
	ClearLabel       = "Clear"
	ResultLabel      = "Estimated Property Value"
	DetailsTitle     = "Property Information"
	ErrorHeading     = "Error:"
	ErrorIcon        = "⚠️"
	PlaceholderIcon  = "🏡"
	PlaceholderTitle = "Get Instant Price Estimate"
	PlaceholderText  = "Fill in your property details to receive an AI-powered price prediction"
	LoadingTitle     = "Analyzing Property Data"
	LoadingText      = "Our AI model is calculating the best estimate for you..."
)

// Reduce maps an orchestrator snapshot to a render model. It is pure and
// total: every snapshot, including the zero value, yields a valid model.
func Reduce(snap orchestrator.Snapshot) RenderModel {
	kind := snap.View.Kind()
	loading := kind == model.ViewLoading

	rm := RenderModel{
		Title:       FormTitle,
		Subtitle:    FormSubtitle,
		Banner:      snap.Banner,
		Controls:    controls(snap),
		CanSubmit:   snap.Ready && snap.Complete() && !loading,
		CanClear:    !loading,
		SubmitLabel: SubmitLabel,
		ClearLabel:  ClearLabel,
		Kind:        kind,
	}
	if loading {
		rm.SubmitLabel = SubmitBusyLabel
	}

	switch kind {
	case model.ViewLoading:
		rm.Loading = &Notice{Title: LoadingTitle, Text: LoadingText}
	case model.ViewError:
		rm.Error = &ErrorPanel{Icon: ErrorIcon, Heading: ErrorHeading, Message: snap.View.Message()}
	case model.ViewResult:
		if res, ok := snap.View.Result(); ok {
			rm.Result = resultPanel(res)
			break
		}
		rm.Kind = model.ViewPlaceholder
		rm.Placeholder = placeholder()
	default:
		rm.Placeholder = placeholder()
	}
	return rm
}

func placeholder() *Notice {
	return &Notice{Icon: PlaceholderIcon, Title: PlaceholderTitle, Text: PlaceholderText}
}

func controls(snap orchestrator.Snapshot) []Control {
	out := make([]Control, 0, 7)
	city := snap.Value(model.FieldCity)

	if snap.CityScoping {
		out = append(out, Control{
			Name:    model.FieldCity,
			Label:   "City",
			Kind:    ControlSelect,
			Value:   city,
			Prompt:  "Select City",
			Choices: choices(snap.Reference.Cities, city, nil),
			Enabled: true,
		})
	}

	area := snap.Value(model.FieldArea)
	out = append(out, Control{
		Name:    model.FieldArea,
		Label:   "Location",
		Kind:    ControlSelect,
		Value:   area,
		Prompt:  "Select Area",
		Choices: choices(snap.Reference.Areas, area, nil),
		Enabled: !snap.CityScoping || (city != "" && !snap.AreasLoading),
		Busy:    snap.AreasLoading,
	})

	pt := snap.Value(model.FieldPropertyType)
	out = append(out, Control{
		Name:  model.FieldPropertyType,
		Label: "Property Type",
		Kind:  ControlRadio,
		Value: pt,
		Choices: choices(snap.Reference.PropertyTypes, pt, func(v string) string {
			return PropertyTypeIcon(model.PropertyType(v))
		}),
		Enabled: true,
	})

	bhk := snap.Value(model.FieldBHK)
	out = append(out, Control{
		Name:    model.FieldBHK,
		Label:   "Bedrooms (BHK)",
		Kind:    ControlRadio,
		Value:   bhk,
		Choices: choices([]string{"1", "2", "3", "4", "5"}, bhk, nil),
		Enabled: true,
	})

	out = append(out,
		Control{
			Name: model.FieldSqft, Label: "Area (Square Feet)", Kind: ControlNumber,
			Value: snap.Value(model.FieldSqft), Placeholder: "e.g., 1200",
			Min: "100", Step: "50", Enabled: true,
		},
		Control{
			Name: model.FieldFloor, Label: "Floor Number", Kind: ControlNumber,
			Value: snap.Value(model.FieldFloor), Placeholder: "e.g., 3",
			Min: "1", Max: "20", Enabled: true,
		},
		Control{
			Name: model.FieldAge, Label: "Property Age (Years)", Kind: ControlNumber,
			Value: snap.Value(model.FieldAge), Placeholder: "e.g., 5",
			Min: "0", Max: "50", Enabled: true,
		},
	)
	return out
}

func choices(values []string, selected string, icon func(string) string) []Choice {
	out := make([]Choice, 0, len(values))
	for _, v := range values {
		c := Choice{Value: v, Label: v, Selected: v == selected}
		if icon != nil {
			c.Icon = icon(v)
		}
		out = append(out, c)
	}
	return out
}

func resultPanel(res model.PredictionResult) *ResultPanel {
	p := message.NewPrinter(language.English)
	in := res.Input

	panel := &ResultPanel{
		Label:        ResultLabel,
		Price:        res.PriceFormatted,
		PricePerSqft: res.PricePerSqftFormatted,
		DetailsTitle: DetailsTitle,
		Details: []Detail{
			{Label: "Location", Value: in.Area},
			{Label: "Property Type", Value: PropertyTypeIcon(in.PropertyType) + " " + string(in.PropertyType)},
			{Label: "Bedrooms", Value: strconv.Itoa(in.BHK) + " BHK"},
			{Label: "Built-up Area", Value: formatSqft(p, in.Sqft) + " sqft"},
			{Label: "Floor", Value: "Floor " + strconv.Itoa(in.Floor)},
			{Label: "Property Age", Value: strconv.Itoa(in.Age) + " years"},
		},
	}
	if res.ConfidenceScore != nil {
		panel.HasConfidence = true
		panel.Confidence = p.Sprintf("%.0f%%", clamp(*res.ConfidenceScore, 0, 100))
	}
	if res.PriceRange != nil {
		panel.HasRange = true
		panel.RangeLower = res.PriceRange.LowerFormatted
		panel.RangeUpper = res.PriceRange.UpperFormatted
	}
	for _, insight := range res.Insights {
		panel.Insights = append(panel.Insights, InsightCard{
			Type:        insight.Type,
			Icon:        InsightIcon(insight.Type),
			Title:       insight.Title,
			Value:       insight.Value,
			Description: insight.Description,
		})
	}
	return panel
}

// formatSqft groups thousands and drops a zero fraction: 1200 -> "1,200".
func formatSqft(p *message.Printer, sqft float64) string {
	if sqft == math.Trunc(sqft) {
		return p.Sprintf("%d", int64(sqft))
	}
	return p.Sprintf("%.2f", sqft)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
