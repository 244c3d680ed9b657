package schema

import (
	"encoding/json"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ResultType indicates why a generation call ended
type ResultType uint

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	ResultNone          ResultType = iota // No result
	ResultStop                            // Natural end of turn
	ResultMaxTokens                       // Token limit reached
	ResultBlocked                         // Content was blocked or refused
	ResultToolCall                        // Model requested one or more tool calls
	ResultError                           // Generation failed
	ResultMaxIterations                   // Tool loop iteration limit reached
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r ResultType) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultStop:
		return "stop"
	case ResultMaxTokens:
		return "max_tokens"
	case ResultBlocked:
		return "blocked"
	case ResultToolCall:
		return "tool_call"
	case ResultError:
		return "error"
	case ResultMaxIterations:
		return "max_iterations"
	}
	return fmt.Sprintf("ResultType(%d)", uint(r))
}

////////////////////////////////////////////////////////////////////////////////
// JSON MARSHAL

func (r ResultType) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *ResultType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "none", "":
		*r = ResultNone
	case "stop":
		*r = ResultStop
	case "max_tokens":
		*r = ResultMaxTokens
	case "blocked":
		*r = ResultBlocked
	case "tool_call":
		*r = ResultToolCall
	case "error":
		*r = ResultError
	case "max_iterations":
		*r = ResultMaxIterations
	default:
		return fmt.Errorf("unknown result type %q", str)
	}
	return nil
}
