package optim

import (
	"fmt"

	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum.
//
// Without momentum each step is param -= lr * grad. With momentum a
// velocity buffer per parameter smooths the updates:
//
//	velocity = momentum * velocity + grad
//	param   -= lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities []*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig configures SGD. A zero LR defaults to 0.01.
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	s := &SGD[B]{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		backend:  backend,
	}
	if config.Momentum != 0 {
		s.velocities = make([]*tensor.Tensor[float32, B], len(params))
		for i, p := range params {
			s.velocities[i] = tensor.Zeros[float32](p.Tensor().Shape(), backend)
		}
	}
	return s
}

// Step applies one SGD update in place.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradData := grad.AsFloat32()
		paramData := param.Tensor().Data()

		if s.momentum == 0 {
			for j := range paramData {
				paramData[j] -= s.lr * gradData[j]
			}
			continue
		}

		velocity := s.velocities[i].Data()
		for j := range paramData {
			velocity[j] = s.momentum*velocity[j] + gradData[j]
			paramData[j] -= s.lr * velocity[j]
		}
	}
}

// ZeroGrad clears the stored gradient of every parameter.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR changes the learning rate, for schedules.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// StateDict exports the velocity buffers as "velocity.{index}". Plain
// SGD has no state and exports nothing.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, v := range s.velocities {
		state[fmt.Sprintf("velocity.%d", i)] = v.Raw()
	}
	return state
}

// LoadStateDict restores velocity buffers, validating shapes against the
// parameters they belong to.
func (s *SGD[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}
	for i, param := range s.params {
		raw, ok := state[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity %d shape %v does not match parameter shape %v",
				i, raw.Shape(), param.Tensor().Shape())
		}
		copy(s.velocities[i].Data(), raw.AsFloat32())
	}
	return nil
}
