// Copyright 2025 The Roto Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roto-ml/roto/backend/cpu"
	"github.com/roto-ml/roto/tensor"
)

func TestCreationAndArithmetic(t *testing.T) {
	backend := cpu.New()

	x := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	y := tensor.Full[float32](tensor.Shape{2, 2}, 10, backend)

	z := x.Add(y).MulScalar(0.5)

	require.True(t, z.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{5.5, 6, 6.5, 7}, z.Data())
}

func TestBroadcastingAdd(t *testing.T) {
	backend := cpu.New()

	x := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	bias := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend)

	z := x.Add(bias)

	require.True(t, z.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, z.Data())
}

func TestCat(t *testing.T) {
	backend := cpu.New()

	a := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	b := tensor.FromSlice([]float32{3, 4}, tensor.Shape{1, 2}, backend)

	z := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{a, b}, 0)

	require.True(t, z.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{1, 2, 3, 4}, z.Data())
}

func TestSparseMatMul(t *testing.T) {
	backend := cpu.New()

	// [[2, 0], [1, 3]] as COO.
	m, err := tensor.NewSparse(2, 2, []int{0, 1, 1}, []int{0, 0, 1}, []float64{2, 1, 3})
	require.NoError(t, err)

	x := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2, 1}, backend)
	z := x.SpMM(m)

	require.True(t, z.Shape().Equal(tensor.Shape{2, 1}))
	assert.Equal(t, []float32{2, 7}, z.Data())
}

func TestNewSparseRejectsBadIndices(t *testing.T) {
	_, err := tensor.NewSparse(2, 2, []int{5}, []int{0}, []float64{1})
	assert.Error(t, err)
}
