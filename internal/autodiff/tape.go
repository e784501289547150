package autodiff

import (
	"github.com/sightline-ml/sightline/internal/autodiff/ops"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(outputGrad, backend)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
	hooks      []*gradientHook // Gradient observers (in registration order)
	nextHookID int
}

// gradientHook observes the final accumulated gradient of a specific tensor.
type gradientHook struct {
	id     int
	target *tensor.RawTensor
	fn     func(grad *tensor.RawTensor)
}

// GradientHookHandle identifies a registered gradient observer so it can be
// removed.
type GradientHookHandle struct {
	tape *GradientTape
	id   int
}

// Remove unregisters the observer. Safe to call more than once.
func (h *GradientHookHandle) Remove() {
	if h.tape == nil {
		return
	}
	for i, hook := range h.tape.hooks {
		if hook.id == h.id {
			h.tape.hooks = append(h.tape.hooks[:i], h.tape.hooks[i+1:]...)
			break
		}
	}
	h.tape = nil
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64), // Pre-allocate for common case
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state and registered gradient observers are preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// RegisterGradientHook registers an observer for the final accumulated
// gradient of target. The observer fires after the backward walk completes,
// and only if a gradient actually reached the target. Observers fire in
// registration order.
func (t *GradientTape) RegisterGradientHook(target *tensor.RawTensor, fn func(grad *tensor.RawTensor)) *GradientHookHandle {
	t.nextHookID++
	hook := &gradientHook{
		id:     t.nextHookID,
		target: target,
		fn:     fn,
	}
	t.hooks = append(t.hooks, hook)
	return &GradientHookHandle{tape: t, id: hook.id}
}

// GradientHookCount returns the number of registered gradient observers.
func (t *GradientTape) GradientHookCount() int {
	return len(t.hooks)
}

// Backward computes gradients by walking the tape in reverse, seeding the
// last recorded operation's output with outputGrad.
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}
	lastOp := t.operations[len(t.operations)-1]
	return t.BackwardFrom(lastOp.Output(), outputGrad, backend)
}

// BackwardFrom computes gradients by walking the tape in reverse, seeding the
// given output tensor with outputGrad. The output does not have to be the
// last operation's result; any recorded tensor works.
//
// Algorithm:
//  1. Seed grads[output] = outputGrad
//  2. Walk operations in reverse order
//  3. For each operation with a gradient on its output, compute input
//     gradients via the chain rule
//  4. Accumulate gradients when the same tensor is used multiple times
//  5. Fire registered gradient observers with the final gradients
func (t *GradientTape) BackwardFrom(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads[output] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		opOutputGrad, hasGrad := grads[op.Output()]
		if !hasGrad {
			continue
		}

		inputGrads := op.Backward(opOutputGrad, backend)
		t.accumulateGrads(op, inputGrads, grads, backend)
	}

	t.fireGradientHooks(grads)

	return grads
}

// accumulateGrads accumulates gradients for each input tensor.
func (t *GradientTape) accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	inputs := op.Inputs()
	for j, input := range inputs {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrad)
		} else {
			grads[input] = inputGrad
		}
	}
}

// fireGradientHooks invokes observers whose targets received a gradient.
func (t *GradientTape) fireGradientHooks(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, hook := range t.hooks {
		if grad, ok := grads[hook.target]; ok {
			hook.fn(grad)
		}
	}
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}
