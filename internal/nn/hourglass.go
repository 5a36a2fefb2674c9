package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/rotation"
	"github.com/roto-ml/roto/internal/tensor"
)

// HourglassConfig configures the encoder/decoder assembly. The
// per-scale channel fields accept either a single value, broadcast to
// every scale, or one value per scale.
type HourglassConfig struct {
	// InputDepth and OutputDepth are the network input and output
	// channel counts.
	InputDepth  int
	OutputDepth int

	// NumScales is the number of encoder/decoder levels; each encoder
	// halves and each decoder doubles the spatial resolution.
	NumScales int

	// NumChannelsDown, NumChannelsUp and NumChannelsSkip are the
	// per-scale widths of the encoder, decoder and skip paths. A skip
	// width of 0 disables that scale's skip path entirely.
	NumChannelsDown []int
	NumChannelsUp   []int
	NumChannelsSkip []int

	// FilterSizeDown, FilterSizeUp and FilterSizeSkip are the kernel
	// sizes of the plain encoder, decoder and skip convolutions.
	FilterSizeDown int
	FilterSizeUp   int
	FilterSizeSkip int

	// UpsampleMode selects the decoder interpolation.
	UpsampleMode tensor.UpsampleMode

	// Need1x1Up adds a 1x1 projection stage to each plain decoder
	// block. NeedSigmoid saturates the final output.
	Need1x1Up   bool
	NeedSigmoid bool

	// Pooling switches the encoder downsampling from stride-2
	// convolutions to stride-1 convolutions followed by a 2x2 max pool.
	Pooling bool

	// Orientations, RotoKernelSize, Periodicity and DiskMask configure
	// the equivariant decoder blocks. RotoScale selects the one
	// non-bottleneck scale that decodes equivariantly; the bottleneck
	// always does.
	Orientations   int
	RotoScale      int
	RotoKernelSize int
	Periodicity    float64
	DiskMask       bool
}

// DefaultHourglassConfig returns the five-scale configuration used for
// image restoration: 16/32/64/128/128 channels down and up, width-4
// skips, bilinear upsampling, and 8-orientation equivariant decoding
// at the bottleneck and at scale 1.
func DefaultHourglassConfig() HourglassConfig {
	return HourglassConfig{
		InputDepth:      32,
		OutputDepth:     3,
		NumScales:       5,
		NumChannelsDown: []int{16, 32, 64, 128, 128},
		NumChannelsUp:   []int{16, 32, 64, 128, 128},
		NumChannelsSkip: []int{4},
		FilterSizeDown:  3,
		FilterSizeUp:    3,
		FilterSizeSkip:  1,
		UpsampleMode:    tensor.UpsampleBilinear,
		Need1x1Up:       true,
		NeedSigmoid:     true,
		Orientations:    8,
		RotoScale:       1,
		RotoKernelSize:  5,
		Periodicity:     rotation.FullTurn,
		DiskMask:        true,
	}
}

// normalize validates the configuration and broadcasts single-entry
// channel lists to per-scale lists.
func (c HourglassConfig) normalize() (HourglassConfig, error) {
	if c.NumScales <= 0 {
		return c, fmt.Errorf("hourglass: invalid scale count %d", c.NumScales)
	}
	if c.InputDepth <= 0 || c.OutputDepth <= 0 {
		return c, fmt.Errorf("hourglass: invalid depths in=%d out=%d", c.InputDepth, c.OutputDepth)
	}
	if c.FilterSizeDown <= 0 || c.FilterSizeUp <= 0 || c.FilterSizeSkip <= 0 {
		return c, fmt.Errorf("hourglass: invalid filter sizes down=%d up=%d skip=%d",
			c.FilterSizeDown, c.FilterSizeUp, c.FilterSizeSkip)
	}
	if c.Orientations <= 0 {
		return c, fmt.Errorf("hourglass: invalid orientation count %d", c.Orientations)
	}
	if c.RotoKernelSize <= 0 {
		return c, fmt.Errorf("hourglass: invalid equivariant kernel size %d", c.RotoKernelSize)
	}
	if c.RotoScale < 0 || c.RotoScale >= c.NumScales {
		return c, fmt.Errorf("hourglass: equivariant scale %d out of range [0, %d)", c.RotoScale, c.NumScales)
	}

	var err error
	if c.NumChannelsDown, err = perScale(c.NumChannelsDown, c.NumScales, "NumChannelsDown"); err != nil {
		return c, err
	}
	if c.NumChannelsUp, err = perScale(c.NumChannelsUp, c.NumScales, "NumChannelsUp"); err != nil {
		return c, err
	}
	if c.NumChannelsSkip, err = perScale(c.NumChannelsSkip, c.NumScales, "NumChannelsSkip"); err != nil {
		return c, err
	}
	for i := 0; i < c.NumScales; i++ {
		if c.NumChannelsDown[i] <= 0 || c.NumChannelsUp[i] <= 0 || c.NumChannelsSkip[i] < 0 {
			return c, fmt.Errorf("hourglass: invalid widths at scale %d: down=%d up=%d skip=%d",
				i, c.NumChannelsDown[i], c.NumChannelsUp[i], c.NumChannelsSkip[i])
		}
	}
	return c, nil
}

// perScale broadcasts a single value to numScales entries and rejects
// any other length mismatch.
func perScale(values []int, numScales int, name string) ([]int, error) {
	switch len(values) {
	case numScales:
		return append([]int(nil), values...), nil
	case 1:
		out := make([]int, numScales)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("hourglass: %s has %d entries, want 1 or %d", name, len(values), numScales)
}

// encoderStage and decoderStage are the per-scale building blocks; the
// equivariant and plain variants both satisfy them.
type encoderStage[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
	SetTraining(training bool)
	StateDict() map[string]*tensor.Tensor[float32, B]
	LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error
}

type decoderStage[B tensor.Backend] interface {
	Forward(input, skip *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
	SetTraining(training bool)
	StateDict() map[string]*tensor.Tensor[float32, B]
	LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error
}

// hourglassScale holds one level of the assembly. The skip projection
// is nil when the scale's skip width is 0.
type hourglassScale[B tensor.Backend] struct {
	encoder encoderStage[B]
	skip    *ConvBlock[B]
	decoder decoderStage[B]
}

// Hourglass is the symmetric encoder/decoder network. Features flow
// down through the encoder scales, across through optional per-scale
// skip projections, and back up through the decoders from the deepest
// scale; the bottleneck and one configured scale decode with the
// rotation-equivariant blocks. A final 1x1 convolution maps to the
// output depth.
type Hourglass[B tensor.Backend] struct {
	config HourglassConfig
	scales []hourglassScale[B]
	head   *Conv2D[B]
	sig    *Sigmoid[B]
}

// NewHourglass builds the assembly from a configuration.
func NewHourglass[B tensor.Backend](config HourglassConfig, backend B) (*Hourglass[B], error) {
	config, err := config.normalize()
	if err != nil {
		return nil, err
	}

	down, up, skip := config.NumChannelsDown, config.NumChannelsUp, config.NumChannelsSkip
	scales := make([]hourglassScale[B], config.NumScales)
	last := config.NumScales - 1

	for i := 0; i < config.NumScales; i++ {
		encoderIn := config.InputDepth
		if i > 0 {
			encoderIn = down[i-1]
		}
		scales[i].encoder = NewEncoderBlock(encoderIn, down[i], config.FilterSizeDown, config.Pooling, backend)

		if skip[i] > 0 {
			scales[i].skip = NewConvBlock(down[i], skip[i], config.FilterSizeSkip, backend)
		}

		// The bottleneck decoder consumes the deepest encoder output;
		// every other decoder consumes the decoder output of the scale
		// below. Either way the scale's skip width is concatenated in.
		decoderIn := down[i]
		if i != last {
			decoderIn = up[i+1]
		}
		decoderIn += skip[i]

		if i == last || i == config.RotoScale {
			roto, err := NewRotoDecoderBlock(decoderIn, up[i], config.RotoKernelSize, config.Orientations,
				config.UpsampleMode, config.Periodicity, config.DiskMask, backend)
			if err != nil {
				return nil, err
			}
			scales[i].decoder = roto
		} else {
			scales[i].decoder = NewDecoderBlock(decoderIn, up[i], config.FilterSizeUp,
				config.UpsampleMode, config.Need1x1Up, backend)
		}
	}

	hg := &Hourglass[B]{
		config: config,
		scales: scales,
		head:   NewConv2D(up[0], config.OutputDepth, 1, 1, 0, backend),
	}
	if config.NeedSigmoid {
		hg.sig = NewSigmoid[B]()
	}
	return hg, nil
}

// Config returns the normalized configuration.
func (h *Hourglass[B]) Config() HourglassConfig {
	return h.config
}

// Forward runs the full encoder/decoder pass.
func (h *Hourglass[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	shapeCheck(len(shape) == 4, "hourglass input rank", "[N, C, H, W]", shape.String())
	shapeCheck(shape[1] == h.config.InputDepth, "hourglass input channels",
		fmt.Sprint(h.config.InputDepth), fmt.Sprint(shape[1]))

	encoded := make([]*tensor.Tensor[float32, B], len(h.scales))
	x := input
	for i, scale := range h.scales {
		x = scale.encoder.Forward(x)
		encoded[i] = x
	}

	skips := make([]*tensor.Tensor[float32, B], len(h.scales))
	for i, scale := range h.scales {
		if scale.skip != nil {
			skips[i] = scale.skip.Forward(encoded[i])
		}
	}

	x = encoded[len(h.scales)-1]
	for i := len(h.scales) - 1; i >= 0; i-- {
		x = h.scales[i].decoder.Forward(x, skips[i])
	}

	x = h.head.Forward(x)
	if h.sig != nil {
		x = h.sig.Forward(x)
	}
	return x
}

func (h *Hourglass[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, scale := range h.scales {
		params = append(params, scale.encoder.Parameters()...)
		if scale.skip != nil {
			params = append(params, scale.skip.Parameters()...)
		}
		params = append(params, scale.decoder.Parameters()...)
	}
	return append(params, h.head.Parameters()...)
}

// SetTraining switches every normalization layer between batch and
// running statistics.
func (h *Hourglass[B]) SetTraining(training bool) {
	for _, scale := range h.scales {
		scale.encoder.SetTraining(training)
		if scale.skip != nil {
			scale.skip.SetTraining(training)
		}
		scale.decoder.SetTraining(training)
	}
}

func (h *Hourglass[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	state := make(map[string]*tensor.Tensor[float32, B])
	for i, scale := range h.scales {
		prefixedState(state, fmt.Sprintf("encoder%d", i), scale.encoder.StateDict())
		if scale.skip != nil {
			prefixedState(state, fmt.Sprintf("skip%d", i), scale.skip.StateDict())
		}
		prefixedState(state, fmt.Sprintf("decoder%d", i), scale.decoder.StateDict())
	}
	prefixedState(state, "head", h.head.StateDict())
	return state
}

func (h *Hourglass[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	for i, scale := range h.scales {
		if err := scale.encoder.LoadStateDict(subState(state, fmt.Sprintf("encoder%d", i))); err != nil {
			return err
		}
		if scale.skip != nil {
			if err := scale.skip.LoadStateDict(subState(state, fmt.Sprintf("skip%d", i))); err != nil {
				return err
			}
		}
		if err := scale.decoder.LoadStateDict(subState(state, fmt.Sprintf("decoder%d", i))); err != nil {
			return err
		}
	}
	return h.head.LoadStateDict(subState(state, "head"))
}
