package llm

import "fmt"

// ResponseError reports that the model answered but the answer is unusable:
// truncated output, refusal, or a payload that does not match the requested
// schema. It is a normal per-article outcome, distinct from transport errors.
type ResponseError struct {
	Kind   string // short machine-oriented reason, e.g. "finish_reason"
	Detail string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("llm response error (%s): %s", e.Kind, e.Detail)
}
