package agentloop

import (
	"slices"

	"github.com/martinemde/toolloop/llm"
)

// Log is an ordered, append-only sequence of turns. The zero value is an
// empty log. A Log never shares storage with the Log it was appended from,
// so older values stay valid after Append. Turns are deep-copied on the way
// in and on the way out, tool payloads and arguments included.
type Log struct {
	turns []llm.Turn
}

// NewLog returns a log holding copies of turns.
func NewLog(turns ...llm.Turn) Log {
	var l Log
	for _, t := range turns {
		l = l.Append(t)
	}
	return l
}

// Append returns a new log extended by turn.
func (l Log) Append(turn llm.Turn) Log {
	return Log{turns: append(slices.Clip(l.turns), turn.Clone())}
}

// Len returns the number of turns.
func (l Log) Len() int {
	return len(l.turns)
}

// Turns returns a copy of the turns in order.
func (l Log) Turns() []llm.Turn {
	out := make([]llm.Turn, len(l.turns))
	for i, t := range l.turns {
		out[i] = t.Clone()
	}
	return out
}

// At returns the i-th turn. It panics if i is out of range.
func (l Log) At(i int) llm.Turn {
	return l.turns[i].Clone()
}

// Last returns the most recent turn.
func (l Log) Last() (llm.Turn, bool) {
	if len(l.turns) == 0 {
		return llm.Turn{}, false
	}
	return l.At(len(l.turns) - 1), true
}
