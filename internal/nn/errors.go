package nn

import "fmt"

// ShapeMismatchError reports a forward-time disagreement between an
// input tensor and a layer's configured axes: wrong channel count,
// wrong orientation count, or wrong rank.
//
// Forward methods panic with a *ShapeMismatchError; a mis-wired network
// is a programming error, not a runtime condition to retry. The typed
// value lets tests and outer recovery layers distinguish it from other
// panics.
type ShapeMismatchError struct {
	Op   string // layer and axis being validated
	Want string
	Got  string
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch, want %s, got %s", e.Op, e.Want, e.Got)
}

// shapeCheck panics with a ShapeMismatchError unless ok.
func shapeCheck(ok bool, op, want, got string) {
	if !ok {
		panic(&ShapeMismatchError{Op: op, Want: want, Got: got})
	}
}
