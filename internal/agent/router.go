package agent

import "strings"

// terminalToken is the out-of-band signal that no further page or action
// remains. Matching is exact and case-sensitive after trimming whitespace.
const terminalToken = "END"

// Route is the control-flow edge chosen after each reasoning pass
type Route int

const (
	// RouteTools services the pending tool calls, then reasons again
	RouteTools Route = iota
	// RouteAgent loops straight back to reasoning (self-correction pass)
	RouteAgent
	// RouteEnd terminates the run
	RouteEnd
)

func (r Route) String() string {
	switch r {
	case RouteTools:
		return "tools"
	case RouteEnd:
		return "end"
	default:
		return "agent"
	}
}

// route inspects the latest assistant message and picks the next edge.
// Pending tool calls always win, even when the text also says "END":
// every emitted tool call must be serviced before termination can be
// considered.
func route(last Message) Route {
	if len(last.ToolCalls) > 0 {
		return RouteTools
	}
	if strings.TrimSpace(last.Content) == terminalToken {
		return RouteEnd
	}
	return RouteAgent
}
