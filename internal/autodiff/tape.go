package autodiff

import (
	"fmt"

	"github.com/primer-ml/primer/internal/autodiff/ops"
	"github.com/primer-ml/primer/internal/tensor"
)

// Tape records operations during the forward pass and replays them in
// reverse to compute gradients.
//
// A training step drives it directly:
//
//	tape.StartRecording()
//	loss := model.Forward(batch)
//	grads := tape.Backward(loss.Raw(), onesLike(loss), backend)
//	tape.Clear()
type Tape struct {
	operations []ops.Operation
	recording  bool
}

// NewTape creates an empty tape. Recording starts off.
func NewTape() *Tape {
	return &Tape{operations: make([]ops.Operation, 0, 64)}
}

// StartRecording enables operation recording.
func (t *Tape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *Tape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether operations are currently being recorded.
func (t *Tape) IsRecording() bool {
	return t.recording
}

// Record appends an operation if the tape is recording.
func (t *Tape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. The recording flag is left as-is so
// a training loop can clear between steps without re-arming the tape.
func (t *Tape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *Tape) NumOps() int {
	return len(t.operations)
}

// Backward seeds output with outputGrad and walks the tape in reverse,
// applying the chain rule at every recorded operation. Gradients for
// tensors used more than once accumulate by addition.
//
// Operations that did not contribute to output are skipped: their outputs
// never receive a gradient, so their Backward is never invoked. Recording
// is suspended for the duration so the gradient arithmetic itself does not
// land on the tape.
//
// The returned map holds a gradient for every tensor that output depends
// on, keyed by identity. Callers look up leaves (parameters) by their raw
// pointer.
func (t *Tape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	// The seed is cloned so accumulation can never write into the
	// caller's tensor through an in-place Add.
	grads[output] = outputGrad.Clone()

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		inputGrads := t.computeInputGrads(op, grads, backend)
		if inputGrads == nil {
			continue
		}
		t.accumulateGrads(op, inputGrads, grads, backend)
	}

	return grads
}

// computeInputGrads runs one operation's backward pass, or returns nil when
// no gradient has reached any of its outputs.
func (t *Tape) computeInputGrads(
	op ops.Operation,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) []*tensor.RawTensor {
	if multi, ok := op.(ops.MultiOutputOperation); ok {
		return t.computeMultiOutputGrads(multi, grads, backend)
	}

	outputGrad, ok := grads[op.Output()]
	if !ok {
		return nil
	}
	return op.Backward(outputGrad, backend)
}

// computeMultiOutputGrads gathers the gradient of every output of a
// multi-output operation. Outputs that no gradient reached (a chunk the
// model never consumed) get zeros so the joint backward still lines up.
func (t *Tape) computeMultiOutputGrads(
	op ops.MultiOutputOperation,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) []*tensor.RawTensor {
	outputs := op.Outputs()
	outputGrads := make([]*tensor.RawTensor, len(outputs))
	hasGrad := false
	for i, out := range outputs {
		if g, ok := grads[out]; ok {
			outputGrads[i] = g
			hasGrad = true
		}
	}
	if !hasGrad {
		return nil
	}
	for i, out := range outputs {
		if outputGrads[i] != nil {
			continue
		}
		zero, err := tensor.NewRaw(out.Shape(), out.DType(), backend.Device())
		if err != nil {
			panic(fmt.Sprintf("autodiff: failed to allocate zero gradient: %v", err))
		}
		outputGrads[i] = zero
	}
	return op.BackwardMulti(outputGrads, backend)
}

// accumulateGrads folds one operation's input gradients into the table.
func (t *Tape) accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	for i, input := range op.Inputs() {
		if i >= len(inputGrads) || inputGrads[i] == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrads[i])
		} else {
			grads[input] = inputGrads[i]
		}
	}
}
