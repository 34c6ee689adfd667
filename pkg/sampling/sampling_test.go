package sampling

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// fixedSource replays a fixed uniform and normal draw.
type fixedSource struct {
	u, z float64
}

func (f fixedSource) Float64() float64     { return f.u }
func (f fixedSource) NormFloat64() float64 { return f.z }

func TestSampleWithFixedSource(t *testing.T) {
	tests := []struct {
		name     string
		dist     Distribution
		src      fixedSource
		expected float64
	}{
		{name: "Normal one sigma", dist: NewNormal(49, 7.4), src: fixedSource{z: 1}, expected: 56.4},
		{name: "Uniform midpoint", dist: NewUniform(0.05, 0.09), src: fixedSource{u: 0.5}, expected: 0.07},
		{name: "Uniform low edge", dist: NewUniform(0.15, 0.45), src: fixedSource{u: 0}, expected: 0.15},
		{name: "Triangular at mode quantile", dist: NewTriangular(0, 1, 4), src: fixedSource{u: 0.25}, expected: 1},
		{name: "Triangular left branch", dist: NewTriangular(0, 2, 4), src: fixedSource{u: 0.125}, expected: 1},
		{name: "Triangular right branch", dist: NewTriangular(0, 2, 4), src: fixedSource{u: 0.875}, expected: 3},
		{name: "Degenerate triangular", dist: NewTriangular(3, 3, 3), src: fixedSource{u: 0.7}, expected: 3},
		{name: "Triangular mode at low", dist: NewTriangular(0, 0, 2), src: fixedSource{u: 0.75}, expected: 1},
		{name: "Degenerate uniform", dist: NewUniform(0.4, 0.4), src: fixedSource{u: 0.3}, expected: 0.4},
		{name: "Constant", dist: NewConstant(0.4), src: fixedSource{u: 0.9, z: -2}, expected: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dist.Sample(tt.src)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Sample() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSampleMoments(t *testing.T) {
	const n = 50_000
	tests := []struct {
		name string
		dist Distribution
		tol  float64
	}{
		{name: "DSO normal", dist: NewNormal(49, 7.4), tol: 0.2},
		{name: "Cost of capital uniform", dist: NewUniform(0.05, 0.09), tol: 0.0005},
		{name: "Fraud triangular", dist: NewTriangular(0.003, 0.005, 0.008), tol: 0.00005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSource(42, 0)
			sum := 0.0
			for i := 0; i < n; i++ {
				v := tt.dist.Sample(src)
				if tt.dist.Kind != Normal && (v < tt.dist.Low || v > tt.dist.High) {
					t.Fatalf("sample %v outside [%v, %v]", v, tt.dist.Low, tt.dist.High)
				}
				sum += v
			}
			mean := sum / n
			if math.Abs(mean-tt.dist.Expected()) > tt.tol {
				t.Errorf("sample mean = %v, expected about %v", mean, tt.dist.Expected())
			}
		})
	}
}

func TestExpected(t *testing.T) {
	tests := []struct {
		name     string
		dist     Distribution
		expected float64
	}{
		{"normal", NewNormal(49, 7.4), 49},
		{"uniform", NewUniform(0.05, 0.09), 0.07},
		{"triangular", NewTriangular(0.003, 0.005, 0.010), 0.006},
		{"degenerate triangular", NewTriangular(2, 2, 2), 2},
		{"constant", NewConstant(0.3), 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dist.Expected(); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestNewSourceDeterministic(t *testing.T) {
	a := NewSource(7, 3)
	b := NewSource(7, 3)
	c := NewSource(7, 4)
	same := true
	for i := 0; i < 100; i++ {
		x, y, z := a.Float64(), b.Float64(), c.Float64()
		if x != y {
			t.Fatalf("draw %d differs for the same seed and stream: %v vs %v", i, x, y)
		}
		if x != z {
			same = false
		}
	}
	if same {
		t.Errorf("different streams produced identical draws")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		dist    Distribution
		wantErr bool
	}{
		{name: "Valid normal", dist: NewNormal(27, 2.7)},
		{name: "Zero std normal", dist: NewNormal(27, 0)},
		{name: "Negative std", dist: NewNormal(27, -1), wantErr: true},
		{name: "NaN mean", dist: NewNormal(math.NaN(), 1), wantErr: true},
		{name: "Valid uniform", dist: NewUniform(0.02, 0.04)},
		{name: "Inverted uniform", dist: NewUniform(0.04, 0.02), wantErr: true},
		{name: "Infinite uniform", dist: NewUniform(0, math.Inf(1)), wantErr: true},
		{name: "Valid triangular", dist: NewTriangular(0.003, 0.005, 0.008)},
		{name: "Mode outside range", dist: NewTriangular(0.003, 0.009, 0.008), wantErr: true},
		{name: "Inverted triangular", dist: NewTriangular(0.008, 0.005, 0.003), wantErr: true},
		{name: "Valid constant", dist: NewConstant(0.3)},
		{name: "NaN constant", dist: NewConstant(math.NaN()), wantErr: true},
		{name: "Unknown kind", dist: Distribution{Kind: "lognormal"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dist.Validate("dso")
			if tt.wantErr {
				if !errors.Is(err, validation.ErrInvalidParameter) {
					t.Errorf("Validate() error = %v, expected ErrInvalidParameter", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestExpectedAndString(t *testing.T) {
	if got := NewTriangular(0.003, 0.005, 0.008).Expected(); math.Abs(got-0.016/3) > 1e-15 {
		t.Errorf("triangular Expected() = %v", got)
	}
	if got := NewUniform(0.15, 0.45).Expected(); math.Abs(got-0.3) > 1e-15 {
		t.Errorf("uniform Expected() = %v", got)
	}
	if got := NewNormal(49, 7.4).String(); got != "Normal(49, 7.4)" {
		t.Errorf("String() = %q", got)
	}
}
