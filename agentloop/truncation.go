package agentloop

import (
	"fmt"
	"unicode/utf8"
)

// TruncationMode specifies how oversized tool output is cut.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// DefaultOutputLimit caps tool output placed in the log, in bytes.
const DefaultOutputLimit = 20000

// TruncateOutput shortens output to at most maxChars bytes and says how much
// was dropped. Cuts land on rune boundaries so the kept text stays valid
// UTF-8. A non-positive maxChars disables truncation.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if maxChars <= 0 || len(output) <= maxChars {
		return output
	}

	switch mode {
	case TruncateTail:
		tail := output[runeStartFrom(output, len(output)-maxChars):]
		return fmt.Sprintf("[output truncated: first %d characters removed]\n\n", len(output)-len(tail)) +
			tail
	default:
		half := maxChars / 2
		head := output[:runeStartBefore(output, half)]
		tail := output[runeStartFrom(output, len(output)-(maxChars-half)):]
		removed := len(output) - len(head) - len(tail)
		return head +
			fmt.Sprintf("\n\n[output truncated: %d characters removed from the middle]\n\n", removed) +
			tail
	}
}

// runeStartBefore moves i back to the nearest rune start at or before it.
func runeStartBefore(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeStartFrom moves i forward to the nearest rune start at or after it.
func runeStartFrom(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
