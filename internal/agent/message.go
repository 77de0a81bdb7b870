package agent

import "encoding/json"

// Role identifies who produced a message in the conversation
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request emitted by the model naming an external
// action and its arguments. It is consumed exactly once by the tool set,
// producing exactly one tool-role message with the matching ToolCallID.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is the tagged union carried through the conversation history.
// Provider wire formats that deliver content as a list of parts are
// flattened to a single string at the provider boundary; nothing past that
// boundary re-inspects content shape.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// UserMessage builds a user-role message
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds an assistant-role message without tool calls
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolResultMessage builds the tool-role message answering one tool call
func ToolResultMessage(callID, result string) Message {
	return Message{Role: RoleTool, Content: result, ToolCallID: callID}
}

// ToolSpec describes one catalogue entry advertised to the model
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
