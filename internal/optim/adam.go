package optim

import (
	"fmt"
	"math"

	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

// Adam is the adaptive moment estimation optimizer of Kingma & Ba.
//
// It keeps exponential moving averages of each parameter's gradient and
// squared gradient, corrects both for their zero initialization, and
// scales every update by the inverse root of the second moment:
//
//	m = beta1*m + (1-beta1)*grad
//	v = beta2*v + (1-beta2)*grad²
//	param -= lr * (m / (1-beta1^t)) / (sqrt(v / (1-beta2^t)) + eps)
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	beta1   float32
	beta2   float32
	eps     float32
	t       int
	m       []*tensor.Tensor[float32, B]
	v       []*tensor.Tensor[float32, B]
	backend B
}

// AdamConfig configures Adam. Zero values default to lr 0.001,
// betas (0.9, 0.999) and eps 1e-8.
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	a := &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		m:       make([]*tensor.Tensor[float32, B], len(params)),
		v:       make([]*tensor.Tensor[float32, B], len(params)),
		backend: backend,
	}
	for i, p := range params {
		a.m[i] = tensor.Zeros[float32](p.Tensor().Shape(), backend)
		a.v[i] = tensor.Zeros[float32](p.Tensor().Shape(), backend)
	}
	return a
}

// Step applies one Adam update in place.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	biasCorrection1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for i, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradData := grad.AsFloat32()
		mData := a.m[i].Data()
		vData := a.v[i].Data()
		paramData := param.Tensor().Data()

		for j := range paramData {
			g := gradData[j]
			mData[j] = a.beta1*mData[j] + (1-a.beta1)*g
			vData[j] = a.beta2*vData[j] + (1-a.beta2)*g*g

			mHat := mData[j] / biasCorrection1
			vHat := vData[j] / biasCorrection2
			paramData[j] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears the stored gradient of every parameter.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR changes the learning rate, for schedules.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// Timestep returns how many steps have been applied, which drives the
// bias correction.
func (a *Adam[B]) Timestep() int {
	return a.t
}

// StateDict exports moment buffers as "m.{index}"/"v.{index}" plus the
// timestep as a one-element int64 tensor "t".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, 2*len(a.params)+1)
	for i := range a.params {
		state[fmt.Sprintf("m.%d", i)] = a.m[i].Raw()
		state[fmt.Sprintf("v.%d", i)] = a.v[i].Raw()
	}

	step, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, a.backend.Device())
	if err != nil {
		panic(err)
	}
	step.AsInt64()[0] = int64(a.t)
	state["t"] = step
	return state
}

// LoadStateDict restores moment buffers and the timestep, validating
// shapes against the parameters they belong to.
func (a *Adam[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for i, param := range a.params {
		shape := param.Tensor().Shape()
		if raw, ok := state[fmt.Sprintf("m.%d", i)]; ok {
			if !raw.Shape().Equal(shape) {
				return fmt.Errorf("first moment %d shape %v does not match parameter shape %v", i, raw.Shape(), shape)
			}
			copy(a.m[i].Data(), raw.AsFloat32())
		}
		if raw, ok := state[fmt.Sprintf("v.%d", i)]; ok {
			if !raw.Shape().Equal(shape) {
				return fmt.Errorf("second moment %d shape %v does not match parameter shape %v", i, raw.Shape(), shape)
			}
			copy(a.v[i].Data(), raw.AsFloat32())
		}
	}

	if raw, ok := state["t"]; ok {
		if raw.DType() != tensor.Int64 || raw.NumElements() != 1 {
			return fmt.Errorf("timestep tensor must be a single int64, got %s %v", raw.DType(), raw.Shape())
		}
		a.t = int(raw.AsInt64()[0])
	}
	return nil
}
