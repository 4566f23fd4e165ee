package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/martinemde/toolloop/llm"
)

// ToolFunc executes a tool. Arguments arrive as decoded JSON. The returned
// value is rendered to text for the model.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolOutput is what the model sees for one tool call.
type ToolOutput struct {
	Content string
	IsError bool
}

// registeredTool pairs a descriptor with its function and compiled schema.
type registeredTool struct {
	name        string
	description string
	schemaJSON  []byte
	schema      *jsonschema.Schema
	fn          ToolFunc
}

func (t *registeredTool) spec() llm.ToolSpec {
	var schema map[string]any
	_ = json.Unmarshal(t.schemaJSON, &schema)
	return llm.ToolSpec{Name: t.name, Description: t.description, InputSchema: schema}
}

// Registry maps tool names to descriptors and functions. Descriptors are
// immutable once registered. It is safe for concurrent use.
type Registry struct {
	tools map[string]*registeredTool
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*registeredTool)}
}

// Register adds a tool. A nil input schema means an object with no declared
// properties.
func (r *Registry) Register(spec llm.ToolSpec, fn ToolFunc) error {
	if spec.Name == "" {
		return errors.New("tool name is required")
	}
	if fn == nil {
		return fmt.Errorf("tool %q has no function", spec.Name)
	}

	schema := spec.InputSchema
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return &SchemaError{Tool: spec.Name, Cause: err}
	}
	compiled, err := compileSchema(spec.Name, raw)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; exists {
		return &DuplicateToolError{Name: spec.Name}
	}
	r.tools[spec.Name] = &registeredTool{
		name:        spec.Name,
		description: spec.Description,
		schemaJSON:  raw,
		schema:      compiled,
		fn:          fn,
	}
	r.order = append(r.order, spec.Name)
	return nil
}

// Describe returns the descriptors in registration order. Each call returns
// fresh copies.
func (r *Registry) Describe() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec())
	}
	return specs
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clone returns a snapshot. Later registrations on either side are not
// visible to the other.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewRegistry()
	for _, name := range r.order {
		clone.tools[name] = r.tools[name]
	}
	clone.order = append(clone.order, r.order...)
	return clone
}

// Invoke runs the named tool. Only an unknown name is returned as an error;
// invalid arguments, tool errors and panics become an error ToolOutput so
// the model can see what went wrong.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (ToolOutput, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return ToolOutput{}, &UnknownToolError{Name: name}
	}

	if args == nil {
		args = map[string]any{}
	}
	doc, err := jsonValue(args)
	if err == nil {
		err = tool.schema.Validate(doc)
	}
	if err != nil {
		return errorOutput(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	result, err := safeCall(ctx, tool.fn, args)
	if err != nil {
		return errorOutput(err), nil
	}
	return ToolOutput{Content: render(result)}, nil
}

func safeCall(ctx context.Context, fn ToolFunc, args map[string]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	return fn(ctx, args)
}

func errorOutput(err error) ToolOutput {
	return ToolOutput{Content: "Error: " + err.Error(), IsError: true}
}

// render converts a tool result to the text placed in a tool_result block.
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
