package agentloop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/toolloop/llm"
)

// DefaultMaxIterations bounds a run when WithMaxIterations is not given.
const DefaultMaxIterations = 5

// Gateway sends one request to a model. *llm.Client satisfies it.
type Gateway interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// State is the lifecycle state of a run.
type State string

const (
	StateAwaitingModel  State = "AWAITING_MODEL"
	StateExecutingTools State = "EXECUTING_TOOLS"
	StateDone           State = "DONE"
	StateExhausted      State = "EXHAUSTED"
	StateFailed         State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateExhausted || s == StateFailed
}

// Result describes a finished run. It is returned for every outcome,
// including failures, so the log of a failed run can be inspected.
type Result struct {
	RunID      string
	State      State
	Text       string
	Log        Log
	Iterations int
	Usage      llm.Usage
	err        error
}

// Answer returns the final text and whether the run reached one.
func (r *Result) Answer() (string, bool) {
	return r.Text, r.State == StateDone
}

// Err returns nil for a finished run, ErrExhausted for a run that ran out of
// iterations and the failure cause otherwise.
func (r *Result) Err() error {
	switch r.State {
	case StateDone:
		return nil
	case StateExhausted:
		return ErrExhausted
	default:
		return r.err
	}
}

// Option configures an Agent or a Conversation.
type Option func(*settings)

type settings struct {
	model         string
	system        string
	maxTokens     int
	maxIterations int
	outputLimit   int
	loopWindow    int
	logger        *slog.Logger
	handlers      []EventHandler
}

func defaultSettings() settings {
	return settings{
		maxIterations: DefaultMaxIterations,
		outputLimit:   DefaultOutputLimit,
		loopWindow:    DefaultLoopWindow,
		logger:        slog.Default(),
	}
}

// WithModel sets the model id sent with every request. Empty leaves the
// choice to the gateway.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *settings) { s.system = prompt }
}

// WithMaxTokens caps output tokens per model call.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = n }
}

// WithMaxIterations sets the number of model calls a run may make.
// Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n >= 1 {
			s.maxIterations = n
		}
	}
}

// WithOutputLimit caps the size of each tool result placed in the log.
// Zero disables truncation.
func WithOutputLimit(n int) Option {
	return func(s *settings) { s.outputLimit = n }
}

// WithLoopDetection sets the repeated-call window. Zero disables it.
func WithLoopDetection(window int) Option {
	return func(s *settings) { s.loopWindow = window }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OnEvent adds a handler for run events.
func OnEvent(h EventHandler) Option {
	return func(s *settings) { s.handlers = append(s.handlers, h) }
}

// Agent runs the tool-use iteration loop. An Agent holds no per-run state;
// each Run works on its own Log and a snapshot of the registry.
type Agent struct {
	gateway  Gateway
	registry *Registry
	settings
}

// NewAgent creates an Agent. A nil registry means no tools.
func NewAgent(gateway Gateway, registry *Registry, opts ...Option) *Agent {
	if registry == nil {
		registry = NewRegistry()
	}
	a := &Agent{gateway: gateway, registry: registry, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&a.settings)
	}
	return a
}

// MaxIterations returns the iteration budget.
func (a *Agent) MaxIterations() int {
	return a.maxIterations
}

// run carries the state of one Run call.
type run struct {
	*Agent
	registry *Registry
	tools    []llm.ToolSpec
	events   *eventEmitter
	logger   *slog.Logger
	result   *Result
}

// Run drives the model until it answers, the budget runs out or the run
// fails. The error is non-nil only for StateFailed; exhaustion is reported
// through Result.State.
func (a *Agent) Run(ctx context.Context, task string) (*Result, error) {
	runID := uuid.NewString()
	reg := a.registry.Clone()
	r := &run{
		Agent:    a,
		registry: reg,
		tools:    reg.Describe(),
		events:   newEventEmitter(runID, a.handlers),
		logger:   a.logger.With("run_id", runID),
		result: &Result{
			RunID: runID,
			State: StateAwaitingModel,
			Log:   NewLog(llm.UserText(task)),
		},
	}
	r.events.emit(EventRunStart, 0, map[string]any{"task": task, "tools": reg.Names()})
	r.logger.InfoContext(ctx, "agent run started", "max_iterations", a.maxIterations, "tools", reg.Len())

	for i := 1; i <= a.maxIterations; i++ {
		r.result.Iterations = i
		done, err := r.step(ctx, i)
		if err != nil {
			return r.fail(ctx, i, err)
		}
		if done {
			return r.finish(ctx, StateDone), nil
		}
	}
	return r.finish(ctx, StateExhausted), nil
}

// step performs one model call and whatever it asks for. It reports true
// when the model produced a final answer.
func (r *run) step(ctx context.Context, iteration int) (bool, error) {
	res := r.result
	res.State = StateAwaitingModel
	r.events.emit(EventModelRequest, iteration, map[string]any{"turns": res.Log.Len()})
	r.logger.DebugContext(ctx, "calling model", "iteration", iteration, "turns", res.Log.Len())

	resp, err := r.gateway.Complete(ctx, llm.Request{
		Model:     r.model,
		System:    r.system,
		Turns:     res.Log.Turns(),
		Tools:     r.tools,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return false, fmt.Errorf("model call: %w", err)
	}
	res.Usage = res.Usage.Add(resp.Usage)
	r.events.emit(EventModelResponse, iteration, map[string]any{
		"stop_reason": string(resp.StopReason),
		"text":        resp.Text(),
	})

	switch resp.StopReason.Class() {
	case llm.StopClassTerminal:
		turn := resp.Turn()
		res.Text, _ = turn.FirstText()
		res.Log = res.Log.Append(turn)
		return true, nil

	case llm.StopClassToolRequested:
		uses := resp.ToolUses()
		if len(uses) == 0 {
			return false, &StopReasonError{Reason: resp.StopReason, Detail: "response holds no tool_use blocks"}
		}
		for _, use := range uses {
			if !r.registry.Has(use.Name) {
				return false, &UnknownToolError{Name: use.Name, ToolUseID: use.ID}
			}
		}

		res.State = StateExecutingTools
		res.Log = res.Log.Append(resp.Turn())
		results := make([]llm.Block, 0, len(uses))
		for _, use := range uses {
			block, err := r.execute(ctx, iteration, use)
			if err != nil {
				return false, err
			}
			results = append(results, block)
		}
		res.Log = res.Log.Append(llm.ToolResultsTurn(results))
		r.checkLoop(ctx, iteration)
		return false, nil

	default:
		return false, &StopReasonError{Reason: resp.StopReason}
	}
}

// execute invokes one tool and builds its tool_result block.
func (r *run) execute(ctx context.Context, iteration int, use llm.ToolUse) (llm.Block, error) {
	r.events.emit(EventToolCallStart, iteration, map[string]any{
		"tool_name": use.Name,
		"call_id":   use.ID,
		"arguments": llm.CloneArguments(use.Arguments),
	})

	start := time.Now()
	out, err := r.registry.Invoke(ctx, use.Name, llm.CloneArguments(use.Arguments))
	if err != nil {
		return llm.Block{}, err
	}
	r.logger.InfoContext(ctx, "tool call",
		"iteration", iteration,
		"tool", use.Name,
		"call_id", use.ID,
		"is_error", out.IsError,
		"duration", time.Since(start),
	)
	r.events.emit(EventToolCallEnd, iteration, map[string]any{
		"tool_name": use.Name,
		"call_id":   use.ID,
		"output":    out.Content,
		"is_error":  out.IsError,
	})

	content := TruncateOutput(out.Content, r.outputLimit, TruncateHeadTail)
	return llm.ToolResultBlock(use.ID, content, out.IsError), nil
}

// checkLoop warns when recent tool calls keep repeating. The log is left
// unchanged.
func (r *run) checkLoop(ctx context.Context, iteration int) {
	if r.loopWindow <= 0 || !DetectLoop(r.result.Log.Turns(), r.loopWindow) {
		return
	}
	msg := fmt.Sprintf("the last %d tool calls follow a repeating pattern", r.loopWindow)
	r.logger.WarnContext(ctx, "repeated tool calls", "iteration", iteration, "window", r.loopWindow)
	r.events.emit(EventLoopDetection, iteration, map[string]any{"message": msg})
}

func (r *run) finish(ctx context.Context, state State) *Result {
	res := r.result
	res.State = state
	r.events.emit(EventRunEnd, res.Iterations, map[string]any{
		"state": string(state),
		"text":  res.Text,
	})
	if state == StateExhausted {
		r.logger.WarnContext(ctx, "agent run exhausted", "iterations", res.Iterations, "turns", res.Log.Len())
	} else {
		r.logger.InfoContext(ctx, "agent run finished", "state", state, "iterations", res.Iterations,
			"input_tokens", res.Usage.InputTokens, "output_tokens", res.Usage.OutputTokens)
	}
	return res
}

func (r *run) fail(ctx context.Context, iteration int, err error) (*Result, error) {
	res := r.result
	res.State = StateFailed
	res.err = err
	r.events.emit(EventError, iteration, map[string]any{"error": err.Error()})
	r.events.emit(EventRunEnd, iteration, map[string]any{"state": string(StateFailed)})
	r.logger.ErrorContext(ctx, "agent run failed", "iteration", iteration, "error", err)
	return res, err
}
