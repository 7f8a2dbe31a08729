package format

import "encoding/json"

// chunkObject is the object discriminator of an OpenAI streaming chunk.
const chunkObject = "chat.completion.chunk"

// Chunk is the OpenAI chat-completion-chunk wire shape: one incremental
// fragment of a streaming chat response, carrying a partial delta rather
// than the full message.
type Chunk struct {
	Object  string   `json:"object"`
	Choices []Choice `json:"choices"`
}

// Choice holds the delta for one parallel completion. The merger only ever
// consumes the first choice.
type Choice struct {
	Delta Delta `json:"delta"`
}

// Delta is the incremental portion of content or tool-call data carried by
// one chunk.
type Delta struct {
	Content   *string         `json:"content"`
	ToolCalls []ToolCallDelta `json:"tool_calls"`
}

// ToolCallDelta is one fragment of a streamed tool invocation, addressed by
// a stable index. Name, arguments, and id all arrive as incremental
// substrings across multiple chunks.
type ToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// isChunkSequence classifies a parsed frame sequence as OpenAI-shaped.
// The rule is an any-match: a single frame with object "chat.completion.chunk"
// and a truthy choices field qualifies the whole sequence, so malformed or
// foreign chunks elsewhere in the stream do not disqualify it.
func isChunkSequence(frames []any) bool {
	for _, f := range frames {
		obj, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if obj["object"] == chunkObject && truthy(obj["choices"]) {
			return true
		}
	}
	return false
}

// truthy applies JavaScript truthiness, which the classification rule
// depends on: an empty choices array still qualifies, while null, false,
// zero, and the empty string do not.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	}
	return true
}

// decodeChunks converts frame payloads into typed chunks. A payload that
// does not fit the chunk shape contributes an empty chunk rather than
// failing the merge; missing fields are never fatal.
func decodeChunks(payloads []string) []Chunk {
	chunks := make([]Chunk, len(payloads))
	for i, p := range payloads {
		// Best effort only. Invalid payloads never reach here (they abort
		// formatting upstream); type mismatches leave the zero chunk.
		_ = json.Unmarshal([]byte(p), &chunks[i])
	}
	return chunks
}
