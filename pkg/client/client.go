package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/contract"
	"github.com/goliatone/go-estimator/pkg/metrics"
	"github.com/goliatone/go-estimator/pkg/model"
)

const (
	tracerName      = "github.com/goliatone/go-estimator/pkg/client"
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// Service is the surface the loader and orchestrator depend on.
type Service interface {
	Cities(ctx context.Context) ([]string, error)
	Areas(ctx context.Context, city string) ([]string, error)
	PropertyTypes(ctx context.Context) ([]string, error)
	Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error)
}

// Client talks to the prediction service over HTTP.
type Client struct {
	base      *url.URL
	http      HTTPDoer
	timeout   time.Duration
	logger    logging.Logger
	contract  *contract.Contract
	strict    bool
	metrics   metrics.Recorder
	tracer    trace.Tracer
	requestID func() string
}

var _ Service = (*Client)(nil)

// New builds a Client rooted at baseURL, e.g. http://localhost:5001.
func New(baseURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}

	c := &Client{
		base:      base,
		http:      http.DefaultClient,
		logger:    logging.NewNop(),
		metrics:   metrics.Nop{},
		tracer:    otel.Tracer(tracerName),
		requestID: uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// BaseURL reports the service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type cityList struct {
	Cities []string `json:"cities"`
}

type areaList struct {
	Areas []string `json:"areas"`
}

type propertyTypeList struct {
	Types []string `json:"types"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Cities lists the cities the service can price.
func (c *Client) Cities(ctx context.Context) ([]string, error) {
	var out cityList
	if err := c.do(ctx, contract.OpListCities, http.MethodGet, "/api/cities", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Cities, nil
}

// Areas lists areas, scoped to city when it is non-empty.
func (c *Client) Areas(ctx context.Context, city string) ([]string, error) {
	var query url.Values
	if city != "" {
		query = url.Values{"city": []string{city}}
	}
	var out areaList
	if err := c.do(ctx, contract.OpListAreas, http.MethodGet, "/api/areas", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Areas, nil
}

// PropertyTypes lists the dwelling categories the service understands.
func (c *Client) PropertyTypes(ctx context.Context) ([]string, error) {
	var out propertyTypeList
	if err := c.do(ctx, contract.OpListPropertyTypes, http.MethodGet, "/api/property-types", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Types, nil
}

// Predict submits input and returns the priced result. Non-2xx responses
// surface as *ServiceError.
func (c *Client) Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error) {
	if err := c.checkContract(func(ct *contract.Contract) error {
		return ct.ValidateRequest(contract.OpPredict, input)
	}); err != nil {
		return model.PredictionResult{}, err
	}

	body, err := json.Marshal(input)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("client: encode input: %w", err)
	}
	var out model.PredictionResult
	if err := c.do(ctx, contract.OpPredict, http.MethodPost, "/api/predict", nil, body, &out); err != nil {
		return model.PredictionResult{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, out any) (err error) {
	if ctx == nil {
		return errors.New("client: context is required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.base.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	reqID := c.requestID()

	ctx, span := c.tracer.Start(ctx, "estimator.client."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", endpoint.String()),
			attribute.String("estimator.request_id", reqID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("client: %s: request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.With(map[string]any{"operation": op, "request_id": reqID})
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op, 0, time.Since(started))
		if isTimeout(ctx, err) {
			log.Warn("service request timed out", map[string]any{"elapsed": time.Since(started).String()})
			return fmt.Errorf("%w: %s", ErrTimeout, op)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("service request failed", map[string]any{"error": err})
		return fmt.Errorf("client: %s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	c.metrics.ObserveRequest(op, resp.StatusCode, time.Since(started))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: %s", ErrTimeout, op)
		}
		return fmt.Errorf("client: %s: read body: %w", op, err)
	}
	if len(payload) > maxBodyBytes {
		log.Warn("service response too large", map[string]any{"status": resp.StatusCode, "limit": maxBodyBytes})
		return fmt.Errorf("%w: %s: more than %d bytes", ErrResponseTooLarge, op, maxBodyBytes)
	}

	log.Debug("service responded", map[string]any{
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).String(),
	})

	if verr := c.checkContract(func(ct *contract.Contract) error {
		return ct.ValidateResponse(op, resp.StatusCode, payload)
	}); verr != nil {
		return verr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		svcErr := &ServiceError{Operation: op, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(payload, &eb) == nil {
			svcErr.Message = strings.TrimSpace(eb.Error)
		}
		return svcErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("client: %s: decode: %w", op, err)
	}
	return nil
}

// checkContract runs fn when a contract is configured. Violations fail the call
// only in strict mode.
func (c *Client) checkContract(fn func(*contract.Contract) error) error {
	if c.contract == nil {
		return nil
	}
	err := fn(c.contract)
	if err == nil {
		return nil
	}
	if c.strict {
		return err
	}
	c.logger.Warn("contract violation", map[string]any{"error": err})
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
