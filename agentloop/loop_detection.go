package agentloop

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/martinemde/toolloop/llm"
)

// DefaultLoopWindow is how many recent tool calls are compared.
const DefaultLoopWindow = 4

// toolCallSignature is the tool name plus a hash of its arguments.
// encoding/json sorts map keys, so equal arguments hash equally.
func toolCallSignature(name string, args map[string]any) string {
	data, _ := json.Marshal(args)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", name, h[:8])
}

// recentToolCallSignatures returns up to count signatures of the latest
// tool_use blocks, oldest first.
func recentToolCallSignatures(turns []llm.Turn, count int) []string {
	var sigs []string
	for i := len(turns) - 1; i >= 0 && len(sigs) < count; i-- {
		if turns[i].Role != llm.RoleAssistant {
			continue
		}
		uses := turns[i].ToolUses()
		for j := len(uses) - 1; j >= 0 && len(sigs) < count; j-- {
			sigs = append(sigs, toolCallSignature(uses[j].Name, uses[j].Arguments))
		}
	}
	slices.Reverse(sigs)
	return sigs
}

// DetectLoop reports whether the last windowSize tool calls repeat a
// pattern of length 1, 2 or 3.
func DetectLoop(turns []llm.Turn, windowSize int) bool {
	if windowSize < 2 {
		return false
	}
	sigs := recentToolCallSignatures(turns, windowSize)
	if len(sigs) < windowSize {
		return false
	}

	for patternLen := 1; patternLen <= 3 && patternLen < windowSize; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		match := true
		for i := patternLen; i < windowSize && match; i++ {
			match = sigs[i] == sigs[i%patternLen]
		}
		if match {
			return true
		}
	}
	return false
}
