package mailcow

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Outcome classifies a provider response. The gateway never returns a Go
// error from a mutating call: "already exists" conditions become
// SoftConflict so callers can continue, provider-reported danger messages
// become HardError, and failures where the provider never answered the
// request properly (network errors, non-danger HTTP failures, unparseable
// bodies) become TransportError.
type Outcome int

const (
	Success Outcome = iota
	SoftConflict
	HardError
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case SoftConflict:
		return "soft-conflict"
	case HardError:
		return "hard-error"
	default:
		return "transport-error"
	}
}

type Result struct {
	Outcome Outcome
	// Msg is the provider's message verbatim for SoftConflict and HardError,
	// and a fixed description for TransportError.
	Msg string
}

// OK reports whether the caller can treat the operation as applied. Soft
// conflicts count: the desired remote object exists.
func (r Result) OK() bool { return r.Outcome == Success || r.Outcome == SoftConflict }

// message is one normalized provider status entry.
type message struct {
	Type string
	Msg  string
}

// rawMessage tolerates the provider's habit of sending msg as either a
// string or an array of string fragments.
type rawMessage struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

func (m rawMessage) normalize() message {
	out := message{Type: m.Type}
	if len(m.Msg) == 0 {
		return out
	}
	var s string
	if err := json.Unmarshal(m.Msg, &s); err == nil {
		out.Msg = s
		return out
	}
	var parts []string
	if err := json.Unmarshal(m.Msg, &parts); err == nil {
		out.Msg = strings.Join(parts, " ")
		return out
	}
	out.Msg = string(m.Msg)
	return out
}

// parseMessages normalizes the three observed provider body shapes into a
// flat message list: a bare array of entries, a single entry object, or an
// object keyed by item name whose values are entries.
func parseMessages(body []byte) ([]message, bool) {
	var arr []rawMessage
	if err := json.Unmarshal(body, &arr); err == nil {
		out := make([]message, 0, len(arr))
		for _, m := range arr {
			out = append(out, m.normalize())
		}
		return out, true
	}

	var single rawMessage
	if err := json.Unmarshal(body, &single); err == nil && single.Type != "" {
		return []message{single.normalize()}, true
	}

	var keyed map[string]rawMessage
	if err := json.Unmarshal(body, &keyed); err == nil && len(keyed) > 0 {
		out := make([]message, 0, len(keyed))
		for _, m := range keyed {
			if m.Type != "" {
				out = append(out, m.normalize())
			}
		}
		if len(out) > 0 {
			return out, true
		}
	}

	return nil, false
}

// classify turns an HTTP status and response body into a Result. The
// provider reports most failures as a 200 whose body carries a danger entry,
// so the body is inspected before the status code.
func classify(status int, body []byte) Result {
	msgs, parsed := parseMessages(body)
	if parsed {
		for _, m := range msgs {
			if m.Type != "danger" {
				continue
			}
			if isExistsMessage(m.Msg) {
				return Result{Outcome: SoftConflict, Msg: m.Msg}
			}
			return Result{Outcome: HardError, Msg: m.Msg}
		}
		if status >= 400 {
			return Result{Outcome: TransportError, Msg: httpErrorMsg(status)}
		}
		return Result{Outcome: Success}
	}

	if status >= 400 {
		return Result{Outcome: TransportError, Msg: httpErrorMsg(status)}
	}
	if len(body) == 0 {
		return Result{Outcome: Success}
	}
	if json.Valid(body) {
		return Result{Outcome: Success}
	}
	return Result{Outcome: TransportError, Msg: "mail provider returned an unreadable response"}
}

func isExistsMessage(msg string) bool {
	return strings.Contains(msg, "exists")
}

func httpErrorMsg(status int) string {
	return "mail provider HTTP error " + strconv.Itoa(status)
}
