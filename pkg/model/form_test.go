package model

import "testing"

func TestParseFieldName(t *testing.T) {
	cases := []struct {
		raw  string
		want FieldName
		ok   bool
	}{
		{raw: "city", want: FieldCity, ok: true},
		{raw: " BHK ", want: FieldBHK, ok: true},
		{raw: "property-type", want: FieldPropertyType, ok: true},
		{raw: "Property_Type", want: FieldPropertyType, ok: true},
		{raw: "balcony", want: FieldName("balcony"), ok: false},
		{raw: "", want: FieldName(""), ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseFieldName(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseFieldName(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
