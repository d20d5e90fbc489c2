package models

// Envelope is the uniform response wrapper applied to every API response.
// Exactly one of Data/Error is non-nil and Success agrees with which one is
// set. An envelope is built once, immediately before serialization, and
// never mutated afterwards.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
}

// ErrorBody describes a failed request. Type is a stable kind name suitable
// for programmatic branching.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// FieldViolation is one request-validation failure record. Loc is the path to
// the offending field, Type the violation category (validator tag), Input the
// value that was rejected.
type FieldViolation struct {
	Loc   []string `json:"loc"`
	Msg   string   `json:"msg"`
	Type  string   `json:"type"`
	Input any      `json:"input"`
}

// Success wraps a handler result in a success envelope.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Failure wraps an error body in a failure envelope.
func Failure(body *ErrorBody) Envelope {
	return Envelope{Success: false, Error: body}
}
