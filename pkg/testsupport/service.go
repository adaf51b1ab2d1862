package testsupport

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-estimator/pkg/model"
)

// PredictFunc computes the response for a predict call. Returning a non-zero
// status sends {"error": message} with that status instead of the result.
type PredictFunc func(in model.FormInput) (res model.PredictionResult, status int, message string)

// ServiceOption customises a FakeService.
type ServiceOption func(*FakeService)

// WithCities replaces the city to area catalogue.
func WithCities(catalogue map[string][]string) ServiceOption {
	return func(s *FakeService) {
		s.cities = catalogue
	}
}

// WithPropertyTypes replaces the property type list.
func WithPropertyTypes(types ...string) ServiceOption {
	return func(s *FakeService) {
		s.types = types
	}
}

// WithPredict replaces the pricing model.
func WithPredict(fn PredictFunc) ServiceOption {
	return func(s *FakeService) {
		if fn != nil {
			s.predict = fn
		}
	}
}

// WithLatency delays every response.
func WithLatency(d time.Duration) ServiceOption {
	return func(s *FakeService) {
		s.latency = d
	}
}

// FakeService is an in-process stand-in for the prediction backend.
type FakeService struct {
	Server *httptest.Server

	mu       sync.Mutex
	cities   map[string][]string
	types    []string
	predict  PredictFunc
	latency  time.Duration
	failures map[string]failure
	requests []string
}

type failure struct {
	status  int
	message string
}

// DefaultCatalogue is the city to area catalogue served by default.
func DefaultCatalogue() map[string][]string {
	return map[string][]string{
		"Hyderabad": {"Banjara Hills", "Gachibowli", "Jubilee Hills", "Kondapur", "Madhapur"},
		"Bangalore": {"Indiranagar", "Koramangala", "Whitefield"},
	}
}

// NewFakeService starts the fake and closes it when the test ends.
func NewFakeService(t testing.TB, opts ...ServiceOption) *FakeService {
	t.Helper()

	svc := &FakeService{
		cities:   DefaultCatalogue(),
		types:    []string{"Apartment", "Independent House", "Villa", "Penthouse"},
		failures: make(map[string]failure),
	}
	svc.predict = svc.estimate
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(svc)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cities", svc.handleCities)
	mux.HandleFunc("GET /api/areas", svc.handleAreas)
	mux.HandleFunc("GET /api/property-types", svc.handleTypes)
	mux.HandleFunc("POST /api/predict", svc.handlePredict)

	svc.Server = httptest.NewServer(svc.middleware(mux))
	t.Cleanup(svc.Server.Close)
	return svc
}

// URL is the base URL of the fake.
func (s *FakeService) URL() string {
	return s.Server.URL
}

// Fail makes every request to path answer with status and {"error": message}.
// A zero status clears the failure.
func (s *FakeService) Fail(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = failure{status: status, message: message}
}

// Requests lists "METHOD /path?query" for every request seen so far.
func (s *FakeService) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *FakeService) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())
		fail, failing := s.failures[r.URL.Path]
		latency := s.latency
		s.mu.Unlock()

		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, fail.status, map[string]string{"error": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeService) handleCities(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	cities := make([]string, 0, len(s.cities))
	for city := range s.cities {
		cities = append(cities, city)
	}
	s.mu.Unlock()
	sort.Strings(cities)
	writeJSON(w, http.StatusOK, map[string][]string{"cities": cities})
}

func (s *FakeService) handleAreas(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")

	s.mu.Lock()
	defer s.mu.Unlock()
	if city != "" {
		areas, ok := s.cities[city]
		if !ok {
			areas = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"areas": areas})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"areas": s.allAreasLocked()})
}

func (s *FakeService) handleTypes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	types := append([]string(nil), s.types...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]string{"types": types})
}

func (s *FakeService) handlePredict(w http.ResponseWriter, r *http.Request) {
	var in model.FormInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	predict := s.predict
	s.mu.Unlock()

	res, status, msg := predict(in)
	if status != 0 && status != http.StatusOK {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *FakeService) allAreasLocked() []string {
	var all []string
	for _, areas := range s.cities {
		all = append(all, areas...)
	}
	sort.Strings(all)
	return slices.Compact(all)
}

var areaRates = map[string]float64{
	"Banjara Hills": 12000,
	"Jubilee Hills": 13500,
	"Gachibowli":    8500,
	"Madhapur":      9000,
	"Kondapur":      7500,
	"Indiranagar":   14000,
	"Koramangala":   13000,
	"Whitefield":    7000,
}

var typeFactors = map[model.PropertyType]float64{
	model.PropertyTypeApartment:        1.0,
	model.PropertyTypeIndependentHouse: 1.15,
	model.PropertyTypeVilla:            1.35,
	model.PropertyTypePenthouse:        1.6,
}

// estimate is a deterministic stand-in for the regression model.
func (s *FakeService) estimate(in model.FormInput) (model.PredictionResult, int, string) {
	s.mu.Lock()
	knownArea := slices.Contains(s.allAreasLocked(), in.Area)
	knownType := slices.Contains(s.types, string(in.PropertyType))
	s.mu.Unlock()

	if !knownArea {
		return model.PredictionResult{}, http.StatusBadRequest, "Invalid area"
	}
	if !knownType {
		return model.PredictionResult{}, http.StatusBadRequest, fmt.Sprintf("Property type '%s' not available", in.PropertyType)
	}

	rate := areaRates[in.Area]
	if rate == 0 {
		rate = 6000
	}
	factor := typeFactors[in.PropertyType]
	if factor == 0 {
		factor = 1
	}
	ageDiscount := 1 - math.Min(float64(in.Age), 50)*0.005
	price := math.Round(rate * in.Sqft * factor * ageDiscount)
	perSqft := math.Round(price/in.Sqft*100) / 100
	confidence := 87.0

	p := message.NewPrinter(language.English)
	return model.PredictionResult{
		PredictedPrice:        price,
		PricePerSqft:          perSqft,
		PriceFormatted:        p.Sprintf("₹%.0f", price),
		PricePerSqftFormatted: p.Sprintf("₹%.0f/sqft", perSqft),
		ConfidenceScore:       &confidence,
		PriceRange: &model.PriceRange{
			Lower:          price * 0.9,
			Upper:          price * 1.1,
			LowerFormatted: p.Sprintf("₹%.0f", price*0.9),
			UpperFormatted: p.Sprintf("₹%.0f", price*1.1),
		},
		Insights: []model.Insight{
			{
				Type:        model.InsightLocation,
				Title:       "Location",
				Value:       in.Area,
				Description: p.Sprintf("Average rate around ₹%.0f/sqft", rate),
			},
		},
		Input: in,
	}, http.StatusOK, ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
