// Copyright 2025 The Roto Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API of the roto library.
//
// It exposes the generic Tensor[T, B] type, the Backend interface that
// compute implementations satisfy, and the shared Shape, DataType and
// Device definitions.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"github.com/roto-ml/roto/internal/tensor"
)

// DType is the constraint on tensor element types: float32 or float64.
type DType = tensor.DType

// DataType identifies the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device identifies where tensor data lives.
type Device = tensor.Device

// CPU is host memory, the only implemented device.
const CPU Device = tensor.CPU

// Shape holds the dimensions of a tensor.
type Shape = tensor.Shape

// Backend is the compute interface tensors dispatch to.
type Backend = tensor.Backend

// UpsampleMode selects the interpolation used by Upsample2D.
type UpsampleMode = tensor.UpsampleMode

// Upsampling modes.
const (
	UpsampleNearest  UpsampleMode = tensor.UpsampleNearest
	UpsampleBilinear UpsampleMode = tensor.UpsampleBilinear
)

// Tensor is the generic type-safe tensor. T is the element type and B
// the backend implementation; constructing tensors against an autodiff
// backend records their operations for backpropagation.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// RawTensor is the untyped tensor underlying Tensor.
type RawTensor = tensor.RawTensor

// Sparse is a COO sparse matrix, used for the rotation operators.
type Sparse = tensor.Sparse

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// FromSlice creates a tensor from a Go slice with the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) *Tensor[T, B] {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a raw tensor. Most callers should use the creation
// functions instead.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates an uninitialized raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// NewSparse creates a COO sparse matrix from coordinate lists.
func NewSparse(numRows, numCols int, rows, cols []int, vals []float64) (*Sparse, error) {
	return tensor.NewSparse(numRows, numCols, rows, cols, vals)
}

// Cat concatenates tensors along a dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}
