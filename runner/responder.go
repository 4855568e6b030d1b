package runner

import (
	"encoding/json"
	"errors"
	"sync"
)

// Responder receives the payload of a phase outcome. Exactly one of its
// methods is called per handled phase.
type Responder interface {
	Succeed(payload any) error
	Fail(payload any) error
}

var ErrAlreadyResponded = errors.New("responder already used")

// JSONResponder records the reported outcome in its wire form.
type JSONResponder struct {
	mu      sync.Mutex
	done    bool
	success bool
	result  json.RawMessage
}

var _ Responder = (*JSONResponder)(nil)

func (j *JSONResponder) Succeed(payload any) error {
	return j.record(true, payload)
}

func (j *JSONResponder) Fail(payload any) error {
	return j.record(false, payload)
}

func (j *JSONResponder) record(success bool, payload any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.done {
		return ErrAlreadyResponded
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	j.done = true
	j.success = success
	j.result = raw
	return nil
}

// Responded reports whether an outcome was recorded.
func (j *JSONResponder) Responded() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

// Success reports which side was recorded.
func (j *JSONResponder) Success() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.success
}

// Result returns the recorded payload JSON.
func (j *JSONResponder) Result() json.RawMessage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// MarshalJSON encodes {"success": bool, "result": payload}.
func (j *JSONResponder) MarshalJSON() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	result := j.result
	if result == nil {
		result = json.RawMessage("null")
	}
	return json.Marshal(struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
	}{j.success, result})
}
