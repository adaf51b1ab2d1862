package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation identifiers declared in the embedded document.
const (
	OpListCities        = "listCities"
	OpListAreas         = "listAreas"
	OpListPropertyTypes = "listPropertyTypes"
	OpPredict           = "predict"
)

//go:embed openapi.yaml
var document []byte

// Document returns the embedded OpenAPI description of the prediction service.
func Document() []byte {
	return append([]byte(nil), document...)
}

var (
	// ErrUnknownOperation is returned for operation ids missing from the document.
	ErrUnknownOperation = errors.New("contract: unknown operation")
)

// Direction marks which side of an exchange failed validation.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// ViolationError reports a payload that does not match the contract.
type ViolationError struct {
	Operation string
	Direction Direction
	Status    int
	Err       error
}

func (e *ViolationError) Error() string {
	if e.Direction == DirectionResponse {
		return fmt.Sprintf("contract: %s %s (status %d): %v", e.Operation, e.Direction, e.Status, e.Err)
	}
	return fmt.Sprintf("contract: %s %s: %v", e.Operation, e.Direction, e.Err)
}

func (e *ViolationError) Unwrap() error { return e.Err }

// Endpoint describes one operation of the contract.
type Endpoint struct {
	ID     string
	Method string
	Path   string
}

type operation struct {
	endpoint  Endpoint
	request   *openapi3.Schema
	responses map[int]*openapi3.Schema
	fallback  *openapi3.Schema
}

// Contract validates payloads exchanged with the prediction service.
type Contract struct {
	ops map[string]operation
}

// Load parses the embedded document.
func Load(ctx context.Context) (*Contract, error) {
	return LoadFromData(ctx, document)
}

// LoadFromData parses and validates an OpenAPI 3 document.
func LoadFromData(ctx context.Context, data []byte) (*Contract, error) {
	if len(data) == 0 {
		return nil, errors.New("contract: document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("contract: document does not contain any paths")
	}

	c := &Contract{ops: make(map[string]operation)}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID == "" {
				continue
			}
			c.ops[op.OperationID] = collect(method, path, op)
		}
	}
	return c, nil
}

func collect(method, path string, op *openapi3.Operation) operation {
	out := operation{
		endpoint:  Endpoint{ID: op.OperationID, Method: method, Path: path},
		responses: make(map[int]*openapi3.Schema),
	}
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		out.request = jsonSchema(op.RequestBody.Value.Content)
	}
	if op.Responses == nil {
		return out
	}
	for code, ref := range op.Responses.Map() {
		if ref == nil || ref.Value == nil {
			continue
		}
		schema := jsonSchema(ref.Value.Content)
		if code == "default" {
			out.fallback = schema
			continue
		}
		var status int
		if _, err := fmt.Sscanf(code, "%d", &status); err == nil {
			out.responses[status] = schema
		}
	}
	return out
}

func jsonSchema(content openapi3.Content) *openapi3.Schema {
	media := content.Get("application/json")
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Value
}

// Endpoint returns the method and path bound to an operation id.
func (c *Contract) Endpoint(id string) (Endpoint, error) {
	op, ok := c.ops[id]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownOperation, id)
	}
	return op.endpoint, nil
}

// Operations lists the operation ids in lexical order.
func (c *Contract) Operations() []string {
	ids := make([]string, 0, len(c.ops))
	for id := range c.ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateRequest checks body against the operation's request schema. Body may
// be raw JSON bytes or any value encoding/json can marshal.
func (c *Contract) ValidateRequest(id string, body any) error {
	op, ok := c.ops[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, id)
	}
	if op.request == nil {
		return nil
	}
	if err := visit(op.request, body); err != nil {
		return &ViolationError{Operation: id, Direction: DirectionRequest, Err: err}
	}
	return nil
}

// ValidateResponse checks body against the schema declared for status, falling
// back to the default response.
func (c *Contract) ValidateResponse(id string, status int, body any) error {
	op, ok := c.ops[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, id)
	}
	schema, declared := op.responses[status]
	if !declared {
		schema = op.fallback
	}
	if schema == nil {
		return nil
	}
	if err := visit(schema, body); err != nil {
		return &ViolationError{Operation: id, Direction: DirectionResponse, Status: status, Err: err}
	}
	return nil
}

func visit(schema *openapi3.Schema, body any) error {
	value, err := toJSONValue(body)
	if err != nil {
		return err
	}
	return schema.VisitJSON(value, openapi3.MultiErrors())
}

func toJSONValue(body any) (any, error) {
	var raw []byte
	switch typed := body.(type) {
	case []byte:
		raw = typed
	case json.RawMessage:
		raw = typed
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		raw = encoded
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return value, nil
}
