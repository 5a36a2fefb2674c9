package optim_test

import (
	"math"
	"testing"

	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/nn"
	"github.com/roto-ml/roto/internal/optim"
	"github.com/roto-ml/roto/internal/tensor"
)

type testBackend = *autodiff.Backend[*cpu.Backend]

func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func newParam(backend testBackend, values ...float32) *nn.Parameter[testBackend] {
	t := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	return nn.NewParameter("p", t)
}

func gradFor(param *nn.Parameter[testBackend], values ...float32) map[*tensor.RawTensor]*tensor.RawTensor {
	grad := tensor.MustNewRaw(tensor.Shape{len(values)}, tensor.Float32, tensor.CPU)
	copy(grad.AsFloat32(), values)
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Raw(): grad}
}

func TestSGDSimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 2.0)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{LR: 0.1})
	optimizer.Step(gradFor(param, 1.0))

	// x = 2.0 - 0.1*1.0
	if got := param.Data()[0]; !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("after step: got %f, want 1.9", got)
	}
}

func TestSGDMomentum(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 1.0)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 1.0, x = 1.0 - 0.1 = 0.9
	optimizer.Step(gradFor(param, 1.0))
	if got := param.Data()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Fatalf("after step 1: got %f, want 0.9", got)
	}

	// Step 2: v = 0.9*1.0 + 1.0 = 1.9, x = 0.9 - 0.19 = 0.71
	optimizer.Step(gradFor(param, 1.0))
	if got := param.Data()[0]; !floatEqual(got, 0.71, 1e-6) {
		t.Errorf("after step 2: got %f, want 0.71", got)
	}
}

func TestSGDDefaultLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 0.0)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{})
	if got := optimizer.GetLR(); !floatEqual(got, 0.01, 1e-9) {
		t.Errorf("default LR = %f, want 0.01", got)
	}
}

func TestSGDSkipsParamsWithoutGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 5.0)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param}, optim.SGDConfig{LR: 0.1})
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if got := param.Data()[0]; got != 5.0 {
		t.Errorf("parameter moved without a gradient: %f", got)
	}
}

func TestAdamFirstStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 1.0)

	optimizer := optim.NewAdam([]*nn.Parameter[testBackend]{param}, optim.AdamConfig{LR: 0.001})
	optimizer.Step(gradFor(param, 0.5))

	// With bias correction the first step moves by almost exactly lr,
	// regardless of the gradient magnitude: mHat = g, vHat = g², so
	// delta = lr * g/(|g| + eps).
	if got := param.Data()[0]; !floatEqual(got, 1.0-0.001, 1e-6) {
		t.Errorf("after step: got %f, want %f", got, 1.0-0.001)
	}
}

func TestAdamNegativeGradientAscends(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 1.0)

	optimizer := optim.NewAdam([]*nn.Parameter[testBackend]{param}, optim.AdamConfig{LR: 0.001})
	optimizer.Step(gradFor(param, -2.0))

	if got := param.Data()[0]; !floatEqual(got, 1.0+0.001, 1e-6) {
		t.Errorf("after step: got %f, want %f", got, 1.0+0.001)
	}
}

func TestSetLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := newParam(backend, 0.0)

	var optimizer optim.Optimizer = optim.NewAdam([]*nn.Parameter[testBackend]{param}, optim.AdamConfig{})
	optimizer.SetLR(0.05)
	if got := optimizer.GetLR(); !floatEqual(got, 0.05, 1e-9) {
		t.Errorf("LR after SetLR = %f, want 0.05", got)
	}
}

// Minimizing f(x) = (x-3)² end to end through the autodiff backend: the
// iterates must approach 3 for both optimizers.
func TestConvergenceOnQuadratic(t *testing.T) {
	run := func(t *testing.T, makeOpt func(p *nn.Parameter[testBackend]) optim.Optimizer, steps int) {
		t.Helper()
		backend := autodiff.New(cpu.New())
		param := newParam(backend, 0.0)
		target := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
		optimizer := makeOpt(param)

		for i := 0; i < steps; i++ {
			diff := param.Tensor().Sub(target)
			loss := diff.Mul(diff).Sum()
			grads := backend.Backward(loss.Raw())
			optimizer.Step(grads.Map())
		}

		got := param.Data()[0]
		if math.Abs(float64(got-3.0)) > 0.1 {
			t.Errorf("after %d steps: x = %f, want ~3.0", steps, got)
		}
	}

	t.Run("sgd", func(t *testing.T) {
		run(t, func(p *nn.Parameter[testBackend]) optim.Optimizer {
			return optim.NewSGD([]*nn.Parameter[testBackend]{p}, optim.SGDConfig{LR: 0.1})
		}, 50)
	})
	t.Run("adam", func(t *testing.T) {
		run(t, func(p *nn.Parameter[testBackend]) optim.Optimizer {
			return optim.NewAdam([]*nn.Parameter[testBackend]{p}, optim.AdamConfig{LR: 0.05})
		}, 400)
	})
}
