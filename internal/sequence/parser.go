package sequence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"helix/internal/logging"
	"helix/internal/types"
)

// ParseStepArray extracts an ordered list of steps from semi-structured
// model output. The model is asked for a JSON array of
// {"step_number": n, "content": "..."} objects but is not guaranteed to
// return clean JSON, so recovery runs in two stages:
//
//  1. Parse the full response directly.
//  2. On failure, parse the span from the first '[' to the last ']'.
//
// If both stages fail, or any element is malformed, the whole batch is
// rejected. Content strings are whitespace-trimmed. The returned steps are
// sorted by the model's step numbers and renumbered densely 1..N.
func ParseStepArray(raw string) ([]types.SequenceStep, *Error) {
	elems, perr := parseArray(raw)
	if perr != nil {
		return nil, perr
	}

	steps := make([]types.SequenceStep, 0, len(elems))
	for i, elem := range elems {
		step, err := validateElement(i, elem)
		if err != nil {
			logging.SequenceDebug("ParseStepArray: rejecting batch: %v", err)
			return nil, &Error{Kind: KindParse, Message: err.Error(), Raw: raw}
		}
		steps = append(steps, step)
	}

	return Renumber(steps), nil
}

func parseArray(raw string) ([]json.RawMessage, *Error) {
	var elems []json.RawMessage

	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), &elems); err == nil {
		return elems, nil
	}

	// Recovery: the model often wraps the array in prose or markdown
	// fences. Take the outermost bracketed span.
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &elems); err == nil {
			logging.SequenceDebug("ParseStepArray: recovered array from span [%d:%d]", start, end+1)
			return elems, nil
		}
	}

	return nil, &Error{
		Kind:    KindParse,
		Message: "Failed to parse sequence steps from model response",
		Raw:     raw,
	}
}

// validateElement checks one array element for an integer step_number and
// a string content field.
func validateElement(index int, elem json.RawMessage) (types.SequenceStep, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(elem, &obj); err != nil {
		return types.SequenceStep{}, fmt.Errorf("element %d is not an object", index+1)
	}

	rawNum, ok := obj["step_number"]
	if !ok {
		return types.SequenceStep{}, fmt.Errorf("element %d is missing step_number", index+1)
	}
	dec := json.NewDecoder(bytes.NewReader(rawNum))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return types.SequenceStep{}, fmt.Errorf("element %d has a non-numeric step_number", index+1)
	}
	n, err := num.Int64()
	if err != nil {
		return types.SequenceStep{}, fmt.Errorf("element %d has a non-integer step_number", index+1)
	}

	rawContent, ok := obj["content"]
	if !ok {
		return types.SequenceStep{}, fmt.Errorf("element %d is missing content", index+1)
	}
	var content string
	if err := json.Unmarshal(rawContent, &content); err != nil {
		return types.SequenceStep{}, fmt.Errorf("element %d has non-string content", index+1)
	}

	return types.SequenceStep{
		StepNumber: int(n),
		Content:    strings.TrimSpace(content),
	}, nil
}
