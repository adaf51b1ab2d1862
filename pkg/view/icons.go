package view

import "github.com/goliatone/go-estimator/pkg/model"

// DefaultPropertyTypeIcon is used for property types missing from the table.
const DefaultPropertyTypeIcon = "🏠"

// DefaultInsightIcon is used for insight types missing from the table.
const DefaultInsightIcon = "💡"

var propertyTypeIcons = map[model.PropertyType]string{
	model.PropertyTypeApartment:        "🏢",
	model.PropertyTypeIndependentHouse: "🏠",
	model.PropertyTypeVilla:            "🏡",
	model.PropertyTypePenthouse:        "🏰",
}

var insightIcons = map[model.InsightType]string{
	model.InsightPriceRange: "📊",
	model.InsightTrend:      "📈",
	model.InsightLocation:   "📍",
	model.InsightInvestment: "💰",
}

// PropertyTypeIcon returns the emoji shown beside a property type.
func PropertyTypeIcon(t model.PropertyType) string {
	if icon, ok := propertyTypeIcons[t]; ok {
		return icon
	}
	return DefaultPropertyTypeIcon
}

// InsightIcon returns the emoji shown beside an insight card.
func InsightIcon(t model.InsightType) string {
	if icon, ok := insightIcons[t]; ok {
		return icon
	}
	return DefaultInsightIcon
}
