// Package llm is the model gateway used by the agent loop: a small,
// provider-agnostic request/response model with adapters for the Anthropic
// Messages API (github.com/anthropics/anthropic-sdk-go) and for the gollm
// library (github.com/teilomillet/gollm).
//
// # Layers
//
//   - Types: Turn, Block (a tagged union over text, tool_use and
//     tool_result), ToolSpec, Request, Response, StopReason.
//   - Adapters: Adapter implementations translating to a provider SDK.
//   - Client: provider routing plus a middleware chain (logging, retry).
//
// # Quick Start
//
//	adapter, _ := llm.NewAnthropicAdapter(os.Getenv("ANTHROPIC_API_KEY"))
//	client := llm.NewClient(
//	    llm.WithProvider(adapter),
//	    llm.WithMiddleware(llm.RetryMiddleware(llm.DefaultRetryPolicy())),
//	)
//
//	resp, err := client.Complete(ctx, llm.Request{
//	    Model: "claude-sonnet-4-20250514",
//	    Turns: []llm.Turn{llm.UserText("Hello")},
//	})
//	fmt.Println(resp.Text())
//
// # Stop reasons
//
// Every response carries the raw stop reason reported by the provider.
// StopReason.Class folds it into the three cases a tool loop branches on:
// terminal, tool-requested and other.
package llm
