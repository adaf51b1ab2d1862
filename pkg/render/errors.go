package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-estimator/pkg/form"
	"github.com/goliatone/go-estimator/pkg/model"
)

// FieldErrors extracts inline messages from a rejected submit. Messages for
// unknown controls and blank messages are dropped.
func FieldErrors(err error) map[model.FieldName]string {
	var verr *form.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		return nil
	}
	out := make(map[model.FieldName]string, len(verr.Fields))
	for name, msg := range verr.Fields {
		msg = strings.TrimSpace(msg)
		if msg == "" || !name.Valid() {
			continue
		}
		out[name] = msg
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
