package model

// InsightType categorises the qualitative notes attached to a prediction.
type InsightType string

const (
	InsightPriceRange InsightType = "price_range"
	InsightTrend      InsightType = "trend"
	InsightLocation   InsightType = "location"
	InsightInvestment InsightType = "investment"
)

// Insight is a single qualitative note returned with a prediction.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Value       string      `json:"value"`
	Description string      `json:"description"`
}

// PriceRange is the optional band around the point estimate.
type PriceRange struct {
	Lower          float64 `json:"lower,omitempty"`
	Upper          float64 `json:"upper,omitempty"`
	LowerFormatted string  `json:"lower_formatted"`
	UpperFormatted string  `json:"upper_formatted"`
}

// PredictionResult is the successful response body of the predict endpoint.
// Optional sections are nil when the service omits them.
type PredictionResult struct {
	PredictedPrice        float64     `json:"predicted_price"`
	PricePerSqft          float64     `json:"price_per_sqft"`
	PriceFormatted        string      `json:"price_formatted"`
	PricePerSqftFormatted string      `json:"price_per_sqft_formatted"`
	ConfidenceScore       *float64    `json:"confidence_score,omitempty"`
	PriceRange            *PriceRange `json:"price_range,omitempty"`
	Insights              []Insight   `json:"insights,omitempty"`
	Input                 FormInput   `json:"input"`
}

// Clone returns a copy that shares no mutable state with r.
func (r PredictionResult) Clone() PredictionResult {
	out := r
	if r.ConfidenceScore != nil {
		score := *r.ConfidenceScore
		out.ConfidenceScore = &score
	}
	if r.PriceRange != nil {
		pr := *r.PriceRange
		out.PriceRange = &pr
	}
	if r.Insights != nil {
		out.Insights = append([]Insight(nil), r.Insights...)
	}
	return out
}
