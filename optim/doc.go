// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
//
// Optimizers hold the trainable parameters and apply updates from the
// gradient map the autodiff backward pass produces:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//
//	for _, batch := range batches {
//	    optimizer.ZeroGrad()
//	    loss := criterion.Forward(model.Forward(batch.Inputs), batch.Labels)
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	}
//
// SGD with momentum and Adam are provided; both satisfy the Optimizer
// interface and the checkpoint package's OptimizerState.
package optim
