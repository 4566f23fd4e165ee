package llm

import (
	"fmt"
	"strings"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind is the discriminator tag for Block.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// ToolUse is a model-initiated tool invocation.
type ToolUse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult answers the ToolUse whose ID equals ToolUseID.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Block is a tagged union representing one unit of turn content.
// Exactly the payload matching Kind is set.
type Block struct {
	Kind       BlockKind   `json:"kind"`
	Text       string      `json:"text,omitempty"`
	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextBlock creates a text Block.
func TextBlock(text string) Block {
	return Block{Kind: BlockText, Text: text}
}

// ToolUseBlock creates a tool_use Block.
func ToolUseBlock(id, name string, args map[string]any) Block {
	return Block{Kind: BlockToolUse, ToolUse: &ToolUse{ID: id, Name: name, Arguments: args}}
}

// ToolResultBlock creates a tool_result Block.
func ToolResultBlock(toolUseID, content string, isError bool) Block {
	return Block{
		Kind:       BlockToolResult,
		ToolResult: &ToolResult{ToolUseID: toolUseID, Content: content, IsError: isError},
	}
}

// Validate reports whether the payload matches the tag.
func (b Block) Validate() error {
	switch b.Kind {
	case BlockText:
		if b.ToolUse != nil || b.ToolResult != nil {
			return fmt.Errorf("text block carries a tool payload")
		}
	case BlockToolUse:
		if b.ToolUse == nil {
			return fmt.Errorf("tool_use block without payload")
		}
		if b.ToolUse.ID == "" || b.ToolUse.Name == "" {
			return fmt.Errorf("tool_use block requires id and name")
		}
	case BlockToolResult:
		if b.ToolResult == nil {
			return fmt.Errorf("tool_result block without payload")
		}
		if b.ToolResult.ToolUseID == "" {
			return fmt.Errorf("tool_result block requires tool_use_id")
		}
	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
	return nil
}

// Turn is one message of a dialogue.
type Turn struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// UserText creates a user Turn holding a single text block.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Content: []Block{TextBlock(text)}}
}

// AssistantText creates an assistant Turn holding a single text block.
func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Content: []Block{TextBlock(text)}}
}

// ToolResultsTurn creates the user Turn that carries tool results back to the model.
func ToolResultsTurn(results []Block) Turn {
	return Turn{Role: RoleUser, Content: results}
}

// Text returns the concatenation of all text blocks.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, b := range t.Content {
		if b.Kind == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// FirstText returns the first text block's content.
func (t Turn) FirstText() (string, bool) {
	for _, b := range t.Content {
		if b.Kind == BlockText {
			return b.Text, true
		}
	}
	return "", false
}

// Clone returns a copy of b that shares no payload, including nested
// argument values.
func (b Block) Clone() Block {
	if b.ToolUse != nil {
		use := *b.ToolUse
		use.Arguments = CloneArguments(use.Arguments)
		b.ToolUse = &use
	}
	if b.ToolResult != nil {
		result := *b.ToolResult
		b.ToolResult = &result
	}
	return b
}

// Clone returns a deep copy of t.
func (t Turn) Clone() Turn {
	if t.Content == nil {
		return t
	}
	content := make([]Block, len(t.Content))
	for i, b := range t.Content {
		content[i] = b.Clone()
	}
	return Turn{Role: t.Role, Content: content}
}

// CloneArguments deep-copies decoded JSON arguments. Nested maps and slices
// are copied; other values are shared.
func CloneArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return CloneArguments(x)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// ToolUses extracts the tool_use payloads in order.
func (t Turn) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range t.Content {
		if b.Kind == BlockToolUse && b.ToolUse != nil {
			uses = append(uses, *b.Clone().ToolUse)
		}
	}
	return uses
}

// Validate checks the role and every block.
func (t Turn) Validate() error {
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return fmt.Errorf("unknown role %q", t.Role)
	}
	if len(t.Content) == 0 {
		return fmt.Errorf("%s turn has no content", t.Role)
	}
	for i, b := range t.Content {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// ToolSpec describes a tool to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema
}

// StopReason is the raw reason the provider gave for ending generation.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopSequence  StopReason = "stop_sequence"
	StopPauseTurn StopReason = "pause_turn"
	StopRefusal   StopReason = "refusal"
)

// StopClass is what a tool loop branches on.
type StopClass int

const (
	StopClassOther StopClass = iota
	StopClassTerminal
	StopClassToolRequested
)

func (c StopClass) String() string {
	switch c {
	case StopClassTerminal:
		return "terminal"
	case StopClassToolRequested:
		return "tool_requested"
	default:
		return "other"
	}
}

// Class folds the raw reason into a StopClass.
func (r StopReason) Class() StopClass {
	switch r {
	case StopEndTurn, StopSequence:
		return StopClassTerminal
	case StopToolUse:
		return StopClassToolRequested
	default:
		return StopClassOther
	}
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Request is the input to Complete and Stream.
type Request struct {
	Model       string     `json:"model"`
	Provider    string     `json:"provider,omitempty"`
	System      string     `json:"system,omitempty"`
	Turns       []Turn     `json:"turns"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
}

// Response is the output of Complete.
type Response struct {
	ID         string     `json:"id"`
	Model      string     `json:"model"`
	Provider   string     `json:"provider"`
	StopReason StopReason `json:"stop_reason"`
	Content    []Block    `json:"content"`
	Usage      Usage      `json:"usage"`
}

// Turn returns a deep copy of the response as an assistant Turn, blocks in
// received order.
func (r Response) Turn() Turn {
	return Turn{Role: RoleAssistant, Content: r.Content}.Clone()
}

// Text returns the concatenated text of the response.
func (r Response) Text() string {
	return r.Turn().Text()
}

// ToolUses extracts the requested tool invocations in order.
func (r Response) ToolUses() []ToolUse {
	return r.Turn().ToolUses()
}

// StreamEventType identifies the kind of stream event.
type StreamEventType string

const (
	StreamStart  StreamEventType = "stream_start"
	TextDelta    StreamEventType = "text_delta"
	StreamFinish StreamEventType = "finish"
	StreamError  StreamEventType = "error"
)

// StreamEvent is a single event from a streaming response.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	Delta    string          `json:"delta,omitempty"`
	Response *Response       `json:"response,omitempty"`
	Err      error           `json:"-"`
}
