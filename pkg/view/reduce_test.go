package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/orchestrator"
)

func readySnapshot() orchestrator.Snapshot {
	return orchestrator.Snapshot{
		CityScoping: true,
		Ready:       true,
		Values:      map[model.FieldName]string{},
		Reference: model.ReferenceData{
			Cities:        []string{"Hyderabad", "Mumbai"},
			Areas:         []string{},
			PropertyTypes: []string{"Apartment", "Villa", "Castle"},
		},
		Missing: model.FieldNames(true),
	}
}

func TestReduce_ZeroValue(t *testing.T) {
	rm := Reduce(orchestrator.Snapshot{})
	if rm.Kind != model.ViewPlaceholder || rm.Placeholder == nil {
		t.Fatalf("zero snapshot must render the placeholder, got %+v", rm)
	}
	if rm.CanSubmit {
		t.Fatalf("not ready, cannot submit")
	}
	if _, ok := rm.Control(model.FieldCity); ok {
		t.Fatalf("city control only exists with city scoping")
	}
}

func TestReduce_Placeholder(t *testing.T) {
	rm := Reduce(readySnapshot())

	want := &Notice{Icon: PlaceholderIcon, Title: PlaceholderTitle, Text: PlaceholderText}
	if diff := cmp.Diff(want, rm.Placeholder); diff != "" {
		t.Fatalf("placeholder mismatch (-want +got):\n%s", diff)
	}
	if rm.Loading != nil || rm.Error != nil || rm.Result != nil {
		t.Fatalf("only the placeholder may be set")
	}
	if rm.SubmitLabel != SubmitLabel || rm.CanSubmit || !rm.CanClear {
		t.Fatalf("unexpected buttons: %+v", rm)
	}

	area, _ := rm.Control(model.FieldArea)
	if area.Enabled {
		t.Fatalf("area is disabled until a city is chosen")
	}

	pt, _ := rm.Control(model.FieldPropertyType)
	icons := []string{}
	for _, c := range pt.Choices {
		icons = append(icons, c.Icon)
	}
	if diff := cmp.Diff([]string{"🏢", "🏡", DefaultPropertyTypeIcon}, icons); diff != "" {
		t.Fatalf("icon mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_Loading(t *testing.T) {
	snap := readySnapshot()
	snap.Missing = nil
	snap.View = model.Loading()

	rm := Reduce(snap)
	if rm.Kind != model.ViewLoading || rm.Loading == nil || rm.Loading.Title != LoadingTitle {
		t.Fatalf("expected loading panel, got %+v", rm)
	}
	if rm.SubmitLabel != SubmitBusyLabel || rm.CanSubmit || rm.CanClear {
		t.Fatalf("buttons must be disabled while loading: %+v", rm)
	}
}

func TestReduce_Error(t *testing.T) {
	snap := readySnapshot()
	snap.View = model.Failed("Invalid area")

	rm := Reduce(snap)
	want := &ErrorPanel{Icon: ErrorIcon, Heading: ErrorHeading, Message: "Invalid area"}
	if diff := cmp.Diff(want, rm.Error); diff != "" {
		t.Fatalf("error mismatch (-want +got):\n%s", diff)
	}
	if rm.Placeholder != nil {
		t.Fatalf("placeholder hidden while an error shows")
	}
}

func TestReduce_Result(t *testing.T) {
	score := 91.45
	snap := readySnapshot()
	snap.Missing = nil
	snap.View = model.Succeeded(model.PredictionResult{
		PriceFormatted:        "₹1.2 Cr",
		PricePerSqftFormatted: "₹10,000/sqft",
		ConfidenceScore:       &score,
		PriceRange:            &model.PriceRange{LowerFormatted: "₹1.1 Cr", UpperFormatted: "₹1.3 Cr"},
		Insights: []model.Insight{
			{Type: model.InsightTrend, Title: "Trend", Value: "+6%", Description: "Yearly appreciation"},
			{Type: "rumour", Title: "Gossip"},
		},
		Input: model.FormInput{
			City: "Hyderabad", Area: "Jubilee Hills", PropertyType: model.PropertyTypePenthouse,
			BHK: 4, Sqft: 1200, Floor: 12, Age: 3,
		},
	})

	rm := Reduce(snap)
	if rm.Result == nil || rm.Kind != model.ViewResult {
		t.Fatalf("expected result panel, got %+v", rm)
	}
	want := &ResultPanel{
		Label:         ResultLabel,
		Price:         "₹1.2 Cr",
		PricePerSqft:  "₹10,000/sqft",
		Confidence:    "91%",
		HasConfidence: true,
		RangeLower:    "₹1.1 Cr",
		RangeUpper:    "₹1.3 Cr",
		HasRange:      true,
		DetailsTitle:  DetailsTitle,
		Details: []Detail{
			{Label: "Location", Value: "Jubilee Hills"},
			{Label: "Property Type", Value: "🏰 Penthouse"},
			{Label: "Bedrooms", Value: "4 BHK"},
			{Label: "Built-up Area", Value: "1,200 sqft"},
			{Label: "Floor", Value: "Floor 12"},
			{Label: "Property Age", Value: "3 years"},
		},
		Insights: []InsightCard{
			{Type: model.InsightTrend, Icon: "📈", Title: "Trend", Value: "+6%", Description: "Yearly appreciation"},
			{Type: "rumour", Icon: DefaultInsightIcon, Title: "Gossip"},
		},
	}
	if diff := cmp.Diff(want, rm.Result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if !rm.CanSubmit {
		t.Fatalf("resubmission allowed from the result state")
	}
}

func TestReduce_AreaControl(t *testing.T) {
	snap := readySnapshot()
	snap.Values[model.FieldCity] = "Hyderabad"
	snap.AreasLoading = true

	area, _ := Reduce(snap).Control(model.FieldArea)
	if area.Enabled || !area.Busy {
		t.Fatalf("area disabled while loading: %+v", area)
	}

	snap.AreasLoading = false
	snap.Reference.Areas = []string{"Gachibowli"}
	snap.Values[model.FieldArea] = "Gachibowli"
	area, _ = Reduce(snap).Control(model.FieldArea)
	if !area.Enabled || len(area.Choices) != 1 || !area.Choices[0].Selected {
		t.Fatalf("unexpected area control: %+v", area)
	}
}

func TestIcons(t *testing.T) {
	cases := map[model.PropertyType]string{
		model.PropertyTypeApartment:        "🏢",
		model.PropertyTypeIndependentHouse: "🏠",
		model.PropertyTypeVilla:            "🏡",
		model.PropertyTypePenthouse:        "🏰",
		"Houseboat":                        "🏠",
	}
	for in, want := range cases {
		if got := PropertyTypeIcon(in); got != want {
			t.Fatalf("PropertyTypeIcon(%q) = %q, want %q", in, got, want)
		}
	}
	if InsightIcon(model.InsightInvestment) != "💰" || InsightIcon("") != DefaultInsightIcon {
		t.Fatalf("insight icon table mismatch")
	}
}
