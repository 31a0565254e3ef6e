package mailcow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The provider reports status in three shapes: a bare array of entries, a
// single entry object, and an object keyed by item name. Each must classify
// identically.

func TestClassify_ArrayShape_Danger(t *testing.T) {
	r := classify(200, []byte(`[{"type":"danger","msg":"password too weak"}]`))
	assert.Equal(t, HardError, r.Outcome)
	assert.Equal(t, "password too weak", r.Msg)
}

func TestClassify_ArrayShape_Success(t *testing.T) {
	r := classify(200, []byte(`[{"type":"success","msg":["domain_added","example.com"]}]`))
	assert.Equal(t, Success, r.Outcome)
}

func TestClassify_SingleObjectShape(t *testing.T) {
	r := classify(200, []byte(`{"type":"danger","msg":"access denied"}`))
	assert.Equal(t, HardError, r.Outcome)
	assert.Equal(t, "access denied", r.Msg)
}

func TestClassify_KeyedShape(t *testing.T) {
	r := classify(200, []byte(`{"example.com":{"type":"danger","msg":"domain_exists"}}`))
	assert.Equal(t, SoftConflict, r.Outcome)
	assert.Equal(t, "domain_exists", r.Msg)
}

func TestClassify_MsgArrayJoined(t *testing.T) {
	r := classify(200, []byte(`[{"type":"danger","msg":["object_exists","admin_example_com"]}]`))
	assert.Equal(t, SoftConflict, r.Outcome)
	assert.Equal(t, "object_exists admin_example_com", r.Msg)
}

func TestClassify_ExistsIsSoftConflict(t *testing.T) {
	for _, msg := range []string{"domain_exists", "object_exists", "alias address already exists"} {
		r := classify(400, []byte(`[{"type":"danger","msg":"`+msg+`"}]`))
		assert.Equal(t, SoftConflict, r.Outcome, "msg=%s", msg)
	}
}

// An HTTP failure whose body carries no danger entry is a transport problem,
// not a provider rejection; only danger messages classify as HardError.
func TestClassify_HTTPErrorWithoutDangerBody(t *testing.T) {
	r := classify(500, []byte(`{"data":"oops"}`))
	assert.Equal(t, TransportError, r.Outcome)
	assert.Contains(t, r.Msg, "500")
}

func TestClassify_NonJSONBody(t *testing.T) {
	r := classify(200, []byte(`<html>gateway timeout</html>`))
	assert.Equal(t, TransportError, r.Outcome)
	assert.Contains(t, r.Msg, "unreadable")
}

func TestClassify_EmptyBodyIsSuccess(t *testing.T) {
	r := classify(200, nil)
	assert.Equal(t, Success, r.Outcome)
}

func TestClassify_PlainJSONPayloadIsSuccess(t *testing.T) {
	r := classify(200, []byte(`{"data":1}`))
	assert.Equal(t, Success, r.Outcome)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "soft-conflict", SoftConflict.String())
	assert.Equal(t, "hard-error", HardError.String())
	assert.Equal(t, "transport-error", TransportError.String())
}

func TestResultOK(t *testing.T) {
	assert.True(t, Result{Outcome: Success}.OK())
	assert.True(t, Result{Outcome: SoftConflict}.OK())
	assert.False(t, Result{Outcome: HardError}.OK())
	assert.False(t, Result{Outcome: TransportError}.OK())
}
