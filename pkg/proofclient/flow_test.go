package proofclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStateMachineTransitions(t *testing.T) {
	sm := newStateMachine()

	assert.True(t, sm.CanTransition(StateIdle, StateSelected))
	assert.True(t, sm.CanTransition(StateSelected, StateVerifying))
	assert.True(t, sm.CanTransition(StateSelected, StateSelected))
	assert.True(t, sm.CanTransition(StateVerifying, StateResulted))
	assert.True(t, sm.CanTransition(StateVerifying, StateSelected))
	assert.True(t, sm.CanTransition(StateResulted, StateSelected))

	assert.False(t, sm.CanTransition(StateIdle, StateVerifying))
	assert.False(t, sm.CanTransition(StateIdle, StateResulted))
	assert.False(t, sm.CanTransition(StateVerifying, StateVerifying))
	assert.False(t, sm.CanTransition(StateResulted, StateVerifying))
}

func TestFlowSelectVerifyAndClose(t *testing.T) {
	var failNext atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failNext.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"boom"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"verification":{"id":"abc","rating":8,"feedback":"nice","relevance":"high","completeness":"complete","imagePath":"u1/t1_1.jpg"}}`)
	}))
	defer server.Close()

	flow := NewFlow(NewClient(server.URL, "test-token", zap.NewNop()), TaskInfo{ID: "t1", Title: "Clean desk"})
	assert.Equal(t, StateIdle, flow.State())

	// verify before any selection does nothing
	assert.Nil(t, flow.Verify(context.Background()))
	assert.Equal(t, StateIdle, flow.State())

	assert.NoError(t, flow.Select(ProofFile{Name: "proof.jpg", ContentType: "image/jpeg", Data: []byte{1}}))
	assert.Equal(t, StateSelected, flow.State())

	// failed verification keeps the selection actionable for retry
	failNext.Store(true)
	assert.Nil(t, flow.Verify(context.Background()))
	assert.Equal(t, StateSelected, flow.State())
	assert.Nil(t, flow.Result())

	failNext.Store(false)
	result := flow.Verify(context.Background())
	assert.NotNil(t, result)
	assert.Equal(t, StateResulted, flow.State())
	assert.Equal(t, result, flow.Result())

	// a new selection clears the prior result
	assert.NoError(t, flow.Select(ProofFile{Name: "again.jpg", ContentType: "image/jpeg", Data: []byte{2}}))
	assert.Equal(t, StateSelected, flow.State())
	assert.Nil(t, flow.Result())

	flow.Close()
	assert.Equal(t, StateIdle, flow.State())
	assert.Nil(t, flow.Capture().Current())
}

// blockingServer answers one verification call but holds the response until
// release is closed, so tests can act while the call is in flight.
func blockingServer(t *testing.T) (*httptest.Server, chan struct{}, chan struct{}) {
	t.Helper()
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"verification":{"id":"abc","rating":8,"feedback":"nice","relevance":"high","completeness":"complete","imagePath":"u1/t1_1.jpg"}}`)
	}))
	return server, started, release
}

func TestFlowRejectsSelectionWhileVerifying(t *testing.T) {
	server, started, release := blockingServer(t)
	defer server.Close()

	flow := NewFlow(NewClient(server.URL, "test-token", zap.NewNop()), TaskInfo{ID: "t1", Title: "Clean desk"})
	assert.NoError(t, flow.Select(ProofFile{Name: "first.jpg", ContentType: "image/jpeg", Data: []byte{1}}))

	done := make(chan *Result, 1)
	go func() { done <- flow.Verify(context.Background()) }()
	<-started
	assert.Equal(t, StateVerifying, flow.State())

	err := flow.Select(ProofFile{Name: "second.jpg", ContentType: "image/jpeg", Data: []byte{2}})
	assert.ErrorIs(t, err, ErrFlowBusy)
	assert.Equal(t, "first.jpg", flow.Capture().Current().Name)

	close(release)
	result := <-done
	assert.NotNil(t, result)
	assert.Equal(t, StateResulted, flow.State())
	assert.Equal(t, result, flow.Result())
}

func TestFlowCloseWhileVerifyingDropsLateResult(t *testing.T) {
	server, started, release := blockingServer(t)
	defer server.Close()

	flow := NewFlow(NewClient(server.URL, "test-token", zap.NewNop()), TaskInfo{ID: "t1", Title: "Clean desk"})
	assert.NoError(t, flow.Select(ProofFile{Name: "proof.jpg", ContentType: "image/jpeg", Data: []byte{1}}))

	done := make(chan *Result, 1)
	go func() { done <- flow.Verify(context.Background()) }()
	<-started

	flow.Close()
	close(release)

	assert.Nil(t, <-done)
	assert.Equal(t, StateIdle, flow.State())
	assert.Nil(t, flow.Result())
}

func TestFlowRejectsInvalidSelection(t *testing.T) {
	flow := NewFlow(NewClient("http://unused", "t", zap.NewNop()), TaskInfo{ID: "t1", Title: "Clean desk"})

	err := flow.Select(ProofFile{Name: "notes.txt", ContentType: "text/plain", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrNotAnImage)
	assert.Equal(t, StateIdle, flow.State())
}
