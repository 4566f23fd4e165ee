// Package agentloop implements a bounded tool-use iteration loop on top of
// the llm gateway.
//
// An Agent seeds a Log with a task, calls the model with the registered tool
// descriptors, executes every tool the model asks for, appends the results
// and calls the model again, until the model produces a final answer or the
// iteration budget runs out.
//
// # Architecture
//
//   - Log: append-only sequence of turns. Append never mutates the receiver.
//   - Registry: tool name to descriptor and function, with argument
//     validation against each tool's JSON Schema.
//   - Agent: the loop itself. Every run ends in one of three terminal
//     states: StateDone, StateExhausted or StateFailed.
//   - Conversation: multi-turn chat and streaming replies over the same Log.
//
// # Quick Start
//
//	reg := agentloop.NewRegistry()
//	tools.Register(reg, "calculate")
//
//	agent := agentloop.NewAgent(client, reg, agentloop.WithMaxIterations(5))
//	res, err := agent.Run(ctx, "compute 2+2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if answer, ok := res.Answer(); ok {
//	    fmt.Println(answer)
//	}
package agentloop
