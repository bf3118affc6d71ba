package proofclient

import (
	"context"
	"errors"
	"sync"
)

// ErrFlowBusy is returned when a selection arrives while verification is
// still running.
var ErrFlowBusy = errors.New("verification in progress")

// Flow drives the proof upload dialog: select an image, verify it, show the
// result. A failed verification keeps the selection so the user can retry;
// closing discards everything.
type Flow struct {
	mu      sync.Mutex
	state   FlowState
	machine *stateMachine
	capture *Capture
	client  *Client
	task    TaskInfo
	result  *Result
}

func NewFlow(client *Client, task TaskInfo) *Flow {
	return &Flow{
		state:   StateIdle,
		machine: newStateMachine(),
		capture: NewCapture(),
		client:  client,
		task:    task,
	}
}

// Select accepts a new proof image and clears any prior result. While a
// verification call is in flight the selection is rejected; the table's
// Verifying to Selected edge belongs to Verify's failure return only.
func (f *Flow) Select(file ProofFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateVerifying {
		return ErrFlowBusy
	}
	if err := f.capture.Select(file); err != nil {
		return err
	}
	f.result = nil
	f.state = StateSelected
	return nil
}

// Verify submits the current selection. On failure the result is nil and the
// flow returns to the selected state, ready for retry.
func (f *Flow) Verify(ctx context.Context) *Result {
	f.mu.Lock()
	if !f.machine.CanTransition(f.state, StateVerifying) {
		f.mu.Unlock()
		return nil
	}
	file := f.capture.Current()
	if file == nil {
		f.mu.Unlock()
		return nil
	}
	f.state = StateVerifying
	task := f.task
	f.mu.Unlock()

	result := f.client.VerifyTaskProof(ctx, *file, task)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateVerifying {
		// the flow was reset while the call was in flight; the late result
		// no longer belongs to the current selection
		return nil
	}
	if result != nil {
		f.result = result
		f.state = StateResulted
	} else {
		f.state = StateSelected
	}
	return result
}

// Close resets the flow unconditionally, discarding preview and result.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capture.Clear()
	f.result = nil
	f.state = StateIdle
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result returns the last verification result, if any.
func (f *Flow) Result() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Capture exposes the underlying capture for preview rendering.
func (f *Flow) Capture() *Capture {
	return f.capture
}
