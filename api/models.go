package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Activity is one entry of the GET /activities response.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// NamedActivity pairs an activity with its unique name.
type NamedActivity struct {
	Name string
	Activity
}

// Roster is the GET /activities response. The service returns a JSON object
// keyed by activity name; Roster keeps the entries in the order they were sent.
type Roster []NamedActivity

// UnmarshalJSON decodes the name-keyed object while preserving key order.
func (r *Roster) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("roster: expected object, got %v", tok)
	}
	out := Roster{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("roster: expected activity name, got %v", tok)
		}
		var a Activity
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("roster: activity %q: %w", name, err)
		}
		out = append(out, NamedActivity{Name: name, Activity: a})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// MarshalJSON encodes the roster back into the name-keyed wire shape, in order.
func (r Roster) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(a.Activity)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LoginRequest is the JSON body for POST /admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /admin/login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// VerifyResponse is returned from GET /admin/verify.
type VerifyResponse struct {
	Username string `json:"username"`
}

// MessageResponse is returned from signup, unregister and logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for all error cases. Detail is usually a string
// but the service may send structured validation errors, so it is kept raw.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// DetailString returns Detail when it is a JSON string, or "" otherwise.
func (e ErrorResponse) DetailString() string {
	var s string
	if len(e.Detail) == 0 || json.Unmarshal(e.Detail, &s) != nil {
		return ""
	}
	return s
}
