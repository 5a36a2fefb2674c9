package tensor

// DType is the type constraint for tensor element types.
//
// The engine is a floating-point one: group-convolution kernels, feature
// maps and rotation-operator products are all real-valued. float32 is the
// working precision for network weights; float64 is used where the extra
// precision matters (operator construction, numerical cross-checks).
type DType interface {
	~float32 | ~float64
}

// DataType is the runtime tag describing the element type of a RawTensor.
type DataType uint8

const (
	// Float32 is the 32-bit floating point data type.
	Float32 DataType = iota
	// Float64 is the 64-bit floating point data type.
	Float64
)

// Size returns the size of one element in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType tag for a concrete element type.
func DataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float64:
		return Float64
	default:
		return Float32
	}
}

// Device identifies where tensor data lives. Only CPU is implemented;
// the enum exists so that backends remain addressable by device.
type Device uint8

const (
	// CPU is host memory.
	CPU Device = iota
)

// String returns the device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	default:
		return "unknown"
	}
}
