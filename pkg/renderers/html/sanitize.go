package html

import (
	stdhtml "html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-estimator/pkg/view"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText strips any markup from service-provided text. The result is
// unescaped again because templates escape on output.
func plainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := textSanitizer().Sanitize(trimmed)
	return strings.TrimSpace(stdhtml.UnescapeString(cleaned))
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// sanitizeModel returns a copy of rm with every displayed string that can
// originate from the prediction service stripped of markup. Form values are
// left intact so they still match the option lists; templates escape them.
func sanitizeModel(rm view.RenderModel) view.RenderModel {
	out := rm
	out.Banner = plainText(rm.Banner)

	out.Controls = make([]view.Control, len(rm.Controls))
	for i, control := range rm.Controls {
		if control.Choices != nil {
			choices := make([]view.Choice, len(control.Choices))
			for j, choice := range control.Choices {
				choice.Label = plainText(choice.Label)
				choices[j] = choice
			}
			control.Choices = choices
		}
		out.Controls[i] = control
	}

	if rm.Error != nil {
		panel := *rm.Error
		panel.Message = plainText(panel.Message)
		out.Error = &panel
	}

	if rm.Result != nil {
		res := *rm.Result
		res.Price = plainText(res.Price)
		res.PricePerSqft = plainText(res.PricePerSqft)
		res.Confidence = plainText(res.Confidence)
		res.RangeLower = plainText(res.RangeLower)
		res.RangeUpper = plainText(res.RangeUpper)
		if res.Details != nil {
			details := make([]view.Detail, len(res.Details))
			for i, d := range res.Details {
				d.Value = plainText(d.Value)
				details[i] = d
			}
			res.Details = details
		}
		if res.Insights != nil {
			insights := make([]view.InsightCard, len(res.Insights))
			for i, card := range res.Insights {
				card.Title = plainText(card.Title)
				card.Value = plainText(card.Value)
				card.Description = plainText(card.Description)
				insights[i] = card
			}
			res.Insights = insights
		}
		out.Result = &res
	}
	return out
}
