package nn

import (
	"fmt"
	"strings"

	"github.com/primer-ml/primer/internal/tensor"
)

// Sequential chains modules, feeding each one's output to the next.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a module chain.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Add appends a module to the chain.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Forward runs the input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, module := range s.modules {
		out = module.Forward(out)
	}
	return out
}

// Parameters collects the parameters of every module in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// StateDict merges the child dicts, prefixing keys with the module index
// so "weight" of the third module becomes "2.weight".
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, module := range s.modules {
		for key, raw := range module.StateDict() {
			state[fmt.Sprintf("%d.%s", i, key)] = raw
		}
	}
	return state
}

// LoadStateDict splits the merged dict back out by index prefix and loads
// each child. Stateless modules are skipped.
func (s *Sequential[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for i, module := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		sub := make(map[string]*tensor.RawTensor)
		for key, raw := range state {
			if strings.HasPrefix(key, prefix) {
				sub[strings.TrimPrefix(key, prefix)] = raw
			}
		}
		if len(sub) == 0 {
			continue
		}
		if err := module.LoadStateDict(sub); err != nil {
			return fmt.Errorf("failed to load module %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of modules in the chain.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the i-th module.
func (s *Sequential[B]) Module(i int) Module[B] {
	return s.modules[i]
}
