package text

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/orchestrator"
	"github.com/goliatone/go-estimator/pkg/render"
	"github.com/goliatone/go-estimator/pkg/view"
)

func resultSnapshot() orchestrator.Snapshot {
	confidence := 91.4
	return orchestrator.Snapshot{
		CityScoping: true,
		Ready:       true,
		Values: map[model.FieldName]string{
			model.FieldCity:         "Hyderabad",
			model.FieldArea:         "Gachibowli",
			model.FieldPropertyType: "Villa",
			model.FieldBHK:          "4",
			model.FieldSqft:         "2400",
			model.FieldFloor:        "1",
			model.FieldAge:          "0",
		},
		Reference: model.ReferenceData{
			Cities:        []string{"Hyderabad"},
			Areas:         []string{"Gachibowli"},
			PropertyTypes: []string{"Apartment", "Villa"},
		},
		View: model.Succeeded(model.PredictionResult{
			PriceFormatted:        "₹2,40,00,000",
			PricePerSqftFormatted: "₹10,000/sqft",
			ConfidenceScore:       &confidence,
			Insights: []model.Insight{
				{Type: "unknown", Title: "Note", Description: "Fresh listing"},
			},
			Input: model.FormInput{Area: "Gachibowli", PropertyType: model.PropertyTypeVilla, BHK: 4, Sqft: 2400, Floor: 1},
		}),
	}
}

func TestRenderer_Result(t *testing.T) {
	out, err := New().Render(context.Background(), view.Reduce(resultSnapshot()), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)

	for _, fragment := range []string{
		"Property Details",
		"🏡 Villa",
		"[ Get Price Estimate ]\n",
		"Estimated Property Value\n  ₹2,40,00,000\n  ₹10,000/sqft\n  Confidence: 91%\n",
		"2,400 sqft",
		"💡 Note\n  Fresh listing\n",
	} {
		if !strings.Contains(page, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, page)
		}
	}
	if strings.Contains(page, "Range:") {
		t.Fatalf("range is omitted when absent")
	}
}

func TestRenderer_WithoutForm(t *testing.T) {
	snap := resultSnapshot()
	snap.View = model.Failed("Invalid area")

	out, err := New(WithForm(false)).Render(context.Background(), view.Reduce(snap), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff("⚠️ Error: Invalid area\n", string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_BannerAndFieldErrors(t *testing.T) {
	snap := orchestrator.Snapshot{CityScoping: true, Banner: "Failed to load data. Make sure backend is running."}
	opts := render.RenderOptions{FieldErrors: map[model.FieldName]string{model.FieldCity: "City is required"}}

	out, err := New().Render(context.Background(), view.Reduce(snap), opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)
	if !strings.HasPrefix(page, "⚠️ Failed to load data. Make sure backend is running.\n\n") {
		t.Fatalf("banner must lead the output:\n%s", page)
	}
	for _, fragment := range []string{"! City is required", "(unavailable)", view.PlaceholderTitle} {
		if !strings.Contains(page, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, page)
		}
	}
}

func TestControlValue(t *testing.T) {
	cases := []struct {
		name    string
		control view.Control
		want    string
	}{
		{"disabled", view.Control{}, "-"},
		{"busy", view.Control{Busy: true}, "loading..."},
		{"prompt", view.Control{Enabled: true, Prompt: "Select City"}, "(Select City)"},
		{"plain", view.Control{Enabled: true, Value: "1500"}, "1500"},
		{"icon", view.Control{Value: "Villa", Choices: []view.Choice{{Value: "Villa", Label: "Villa", Icon: "🏡", Selected: true}}}, "🏡 Villa"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := controlValue(tc.control); got != tc.want {
				t.Fatalf("controlValue = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJSONRenderer(t *testing.T) {
	snap := resultSnapshot()
	opts := render.RenderOptions{FieldErrors: map[model.FieldName]string{model.FieldAge: "Property Age must be at most 50"}}

	out, err := NewJSON().Render(context.Background(), view.Reduce(snap), opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded struct {
		Kind        string            `json:"kind"`
		FieldErrors map[string]string `json:"field_errors"`
		Result      struct {
			Price string `json:"price"`
		} `json:"result"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != "result" || decoded.Result.Price != "₹2,40,00,000" {
		t.Fatalf("unexpected frame: %+v", decoded)
	}
	if decoded.FieldErrors["age"] != "Property Age must be at most 50" {
		t.Fatalf("field errors missing: %+v", decoded.FieldErrors)
	}
}
