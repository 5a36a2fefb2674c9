// Copyright 2025 The Roto Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Wrapping a backend records every tensor operation on a gradient
// tape; Backward replays the tape in reverse to accumulate gradients:
//
//	backend := autodiff.New(cpu.New())
//	output := model.Forward(input)
//	loss := criterion.Forward(output, target)
//	grads := backend.Backward(loss.Raw())
package autodiff

import (
	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/tensor"
)

// Backend decorates an inner backend with gradient recording.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// New wraps a backend with autodiff capability.
func New[B tensor.Backend](inner B) *Backend[B] {
	return autodiff.New(inner)
}

// GradientTape records operations for backpropagation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// Gradients maps tensors to their accumulated gradients.
type Gradients = autodiff.Gradients
