// Copyright 2025 The Roto Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rotation provides the public API of the sparse rotation
// operator builder underlying the equivariant convolutions.
package rotation

import (
	"github.com/roto-ml/roto/internal/rotation"
)

// Periodicity constants: the angular range the N orientations cover.
const (
	FullTurn = rotation.FullTurn
	HalfTurn = rotation.HalfTurn
)

// Configuration errors.
var (
	ErrInvalidShape            = rotation.ErrInvalidShape
	ErrInvalidOrientationCount = rotation.ErrInvalidOrientationCount
)

// Operator rotates a flattened kernel plane into N orientations with
// one sparse matrix multiply.
type Operator = rotation.Operator

// GroupOperator additionally rolls the orientation axis, producing the
// full rotated-and-shifted kernel family of a group convolution.
type GroupOperator = rotation.GroupOperator

// Build constructs the planar rotation operator for an h by w kernel.
func Build(height, width, orientations int, periodicity float64, diskMask bool) (*Operator, error) {
	return rotation.Build(height, width, orientations, periodicity, diskMask)
}

// BuildGroup constructs the fused rotate-and-roll group operator.
func BuildGroup(height, width, orientations int, periodicity float64, diskMask bool) (*GroupOperator, error) {
	return rotation.BuildGroup(height, width, orientations, periodicity, diskMask)
}

// Cached returns the planar operator for the key, building it on first
// use. Operators are immutable and safe to share.
func Cached(height, width, orientations int, periodicity float64, diskMask bool) (*Operator, error) {
	return rotation.Cached(height, width, orientations, periodicity, diskMask)
}

// CachedGroup returns the group operator for the key, building it on
// first use.
func CachedGroup(height, width, orientations int, periodicity float64, diskMask bool) (*GroupOperator, error) {
	return rotation.CachedGroup(height, width, orientations, periodicity, diskMask)
}
