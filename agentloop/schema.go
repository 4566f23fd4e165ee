package agentloop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/martinemde/toolloop/llm"
)

// NewToolSpec describes a tool whose arguments decode into T. The input
// schema is reflected from T's json and jsonschema struct tags; fields
// without omitempty are required.
func NewToolSpec[T any](name, description string) (llm.ToolSpec, error) {
	r := &invopop.Reflector{Anonymous: true, ExpandedStruct: true, DoNotReference: true}
	data, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		return llm.ToolSpec{}, &SchemaError{Tool: name, Cause: err}
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return llm.ToolSpec{}, &SchemaError{Tool: name, Cause: err}
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return llm.ToolSpec{Name: name, Description: description, InputSchema: schema}, nil
}

// Bind adapts a typed function into a ToolFunc. Arguments are decoded into T
// through a JSON round trip.
func Bind[T any](fn func(ctx context.Context, args T) (any, error)) ToolFunc {
	return func(ctx context.Context, raw map[string]any) (any, error) {
		var args T
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, args)
	}
}

// RegisterFunc registers fn under name with a schema reflected from T.
func RegisterFunc[T any](r *Registry, name, description string, fn func(ctx context.Context, args T) (any, error)) error {
	spec, err := NewToolSpec[T](name, description)
	if err != nil {
		return err
	}
	return r.Register(spec, Bind(fn))
}

// compileSchema compiles a tool input schema into a validator.
func compileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &SchemaError{Tool: name, Cause: err}
	}
	url := "urn:toolloop:tool:" + name
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, &SchemaError{Tool: name, Cause: err}
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, &SchemaError{Tool: name, Cause: err}
	}
	return sch, nil
}

// jsonValue re-decodes v into the plain JSON values the validator expects.
func jsonValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
