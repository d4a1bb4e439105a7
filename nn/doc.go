// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers for the Primer ML framework.
//
// # Overview
//
// Layers are Modules: they expose Forward, Parameters, and state-dict
// round-tripping. Modules compose through Sequential:
//
//	model := nn.NewSequential[*Backend](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[*Backend](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// # Layers
//
//   - Linear, Conv2D, MaxPool2D, Flatten: the image-classifier stack
//   - Embedding, RNN, LSTM: the text-classifier stack
//   - ReLU, Sigmoid, Tanh: activations
//   - CrossEntropyLoss, MSELoss: criteria
//
// # Training
//
// Layers work on any tensor.Backend; training requires the autodiff
// wrapper so the loss can be differentiated:
//
//	backend := autodiff.New(cpu.New())
//	backend.GetTape().StartRecording()
//
//	logits := model.Forward(inputs)
//	loss := criterion.Forward(logits, labels)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//
// # Checkpoints
//
// Checkpoint captures model weights plus optimizer state in one .primer
// file; see SaveCheckpoint and LoadCheckpoint.
package nn
