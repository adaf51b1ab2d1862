package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/contract"
	"github.com/goliatone/go-estimator/pkg/model"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(logging.NewTest(t))}, opts...)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New("localhost:5001")
	assert.ErrorIs(t, err, ErrBaseURL)
}

func TestReferenceLists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		switch r.URL.Path {
		case "/api/cities":
			writeJSON(w, http.StatusOK, map[string]any{"cities": []string{"Hyderabad", "Bangalore"}})
		case "/api/areas":
			if r.URL.Query().Get("city") == "Hyderabad" {
				writeJSON(w, http.StatusOK, map[string]any{"areas": []string{"Gachibowli", "Kondapur"}})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"areas": []string{"All"}})
		case "/api/property-types":
			writeJSON(w, http.StatusOK, map[string]any{"types": []string{"Apartment", "Villa"}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	cities, err := c.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hyderabad", "Bangalore"}, cities)

	areas, err := c.Areas(ctx, "Hyderabad")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gachibowli", "Kondapur"}, areas)

	unscoped, err := c.Areas(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"All"}, unscoped)

	types, err := c.PropertyTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apartment", "Villa"}, types)
}

func TestPredict_Success(t *testing.T) {
	input := model.FormInput{
		City: "Hyderabad", Area: "Gachibowli", PropertyType: model.PropertyTypeApartment,
		BHK: 3, Sqft: 1500, Floor: 5, Age: 2,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got model.FormInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, input, got)

		writeJSON(w, http.StatusOK, map[string]any{
			"predicted_price":          8750000,
			"price_per_sqft":           5833.33,
			"price_formatted":          "₹87,50,000",
			"price_per_sqft_formatted": "₹5,833/sqft",
			"confidence_score":         91.5,
			"price_range":              map[string]any{"lower_formatted": "₹80L", "upper_formatted": "₹95L"},
			"insights": []map[string]any{
				{"type": "location", "title": "Prime area", "value": "IT corridor", "description": "Close to offices"},
			},
			"input": input,
		})
	})

	res, err := c.Predict(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "₹87,50,000", res.PriceFormatted)
	assert.Equal(t, "₹5,833/sqft", res.PricePerSqftFormatted)
	assert.InDelta(t, 8750000, res.PredictedPrice, 0.001)
	require.NotNil(t, res.ConfidenceScore)
	assert.InDelta(t, 91.5, *res.ConfidenceScore, 0.001)
	require.NotNil(t, res.PriceRange)
	assert.Equal(t, "₹95L", res.PriceRange.UpperFormatted)
	require.Len(t, res.Insights, 1)
	assert.Equal(t, model.InsightLocation, res.Insights[0].Type)
	assert.Equal(t, input, res.Input)
}

func TestPredict_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid area"})
	})

	_, err := c.Predict(context.Background(), model.FormInput{Area: "X", PropertyType: "Villa", BHK: 1, Sqft: 100, Floor: 1})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	assert.Equal(t, "Invalid area", svcErr.Message)

	msg, ok := ServiceMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Invalid area", msg)
}

func TestPredict_ServiceErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	_, err := c.Predict(context.Background(), model.FormInput{})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Empty(t, svcErr.Message)
	_, ok := ServiceMessage(err)
	assert.False(t, ok)
}

func TestPredict_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.Predict(context.Background(), model.FormInput{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDo_TransportError(t *testing.T) {
	c, err := New("http://estimator.invalid", WithHTTPClient(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})))
	require.NoError(t, err)

	_, err = c.Cities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRequestIDFunc(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{"types": []string{}})
	}, WithRequestIDFunc(func() string { return "req-1" }))

	_, err := c.PropertyTypes(context.Background())
	require.NoError(t, err)
}

func TestContract_StrictRejectsInvalidRequest(t *testing.T) {
	ct, err := contract.Load(context.Background())
	require.NoError(t, err)

	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		writeJSON(w, http.StatusOK, map[string]any{})
	}, WithContract(ct, true))

	_, err = c.Predict(context.Background(), model.FormInput{Area: "Gachibowli", PropertyType: "Villa", BHK: 7, Sqft: 1200, Floor: 2})
	var violation *contract.ViolationError
	require.ErrorAs(t, err, &violation)
	assert.False(t, called, "strict contract must block the request")
}

func TestContract_LenientLogsAndContinues(t *testing.T) {
	ct, err := contract.Load(context.Background())
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// price_per_sqft_formatted is missing
		writeJSON(w, http.StatusOK, map[string]any{"price_formatted": "₹1"})
	}, WithContract(ct, false))

	res, err := c.Predict(context.Background(), model.FormInput{Area: "Gachibowli", PropertyType: "Villa", BHK: 2, Sqft: 1200, Floor: 2})
	require.NoError(t, err)
	assert.Equal(t, "₹1", res.PriceFormatted)
}

func TestDo_ResponseTooLarge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cities":["` + strings.Repeat("a", maxBodyBytes) + `"]}`))
	})

	_, err := c.Cities(context.Background())
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestDo_BodyAtLimitIsRead(t *testing.T) {
	prefix, suffix := `{"cities":["`, `"]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(prefix + strings.Repeat("a", maxBodyBytes-len(prefix)-len(suffix)) + suffix))
	})

	cities, err := c.Cities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 1)
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_RecordsClientSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/predict" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid area"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cities": []string{"Hyderabad"}})
	}, WithTracerProvider(tp), WithRequestIDFunc(func() string { return "req-7" }))

	_, err := c.Cities(context.Background())
	require.NoError(t, err)
	_, err = c.Predict(context.Background(), model.FormInput{Area: "Nowhere", PropertyType: "Villa", BHK: 1, Sqft: 100, Floor: 1})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "estimator.client."+contract.OpListCities, ok.Name())
	assert.Equal(t, trace.SpanKindClient, ok.SpanKind())
	assert.Equal(t, codes.Unset, ok.Status().Code)
	status, found := spanAttr(ok, "http.response.status_code")
	require.True(t, found)
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())
	reqID, found := spanAttr(ok, "estimator.request_id")
	require.True(t, found)
	assert.Equal(t, "req-7", reqID.AsString())

	failed := spans[1]
	assert.Equal(t, "estimator.client."+contract.OpPredict, failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Contains(t, failed.Status().Description, "Invalid area")
	status, found = spanAttr(failed, "http.response.status_code")
	require.True(t, found)
	assert.Equal(t, int64(http.StatusBadRequest), status.AsInt64())
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
}
