// Package sampling draws model inputs from parametric distributions using an
// injectable random source.
package sampling

import (
	"fmt"
	"math/rand/v2"

	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the randomness the distributions consume. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// SourceFactory returns an independent source for one stream of a seeded run.
type SourceFactory func(seed, stream uint64) Source

// NewSource is the default factory: a PCG generator keyed by seed and stream.
func NewSource(seed, stream uint64) Source {
	return rand.New(rand.NewPCG(seed, stream))
}

// EntropySeed returns a seed from the runtime's entropy source for runs that
// did not configure one.
func EntropySeed() uint64 {
	return rand.Uint64()
}

// Kind names a distribution family.
type Kind string

const (
	Normal     Kind = "normal"
	Uniform    Kind = "uniform"
	Triangular Kind = "triangular"
	Constant   Kind = "constant"
)

// Distribution is a tagged parametric distribution. Only the fields of its
// Kind are read: Mean/StdDev for normal, Low/High for uniform, Low/Mode/High
// for triangular and Value for constant.
type Distribution struct {
	Kind   Kind
	Mean   float64
	StdDev float64
	Low    float64
	Mode   float64
	High   float64
	Value  float64
}

func NewNormal(mean, stdDev float64) Distribution {
	return Distribution{Kind: Normal, Mean: mean, StdDev: stdDev}
}

func NewUniform(low, high float64) Distribution {
	return Distribution{Kind: Uniform, Low: low, High: high}
}

func NewTriangular(low, mode, high float64) Distribution {
	return Distribution{Kind: Triangular, Low: low, Mode: mode, High: high}
}

func NewConstant(value float64) Distribution {
	return Distribution{Kind: Constant, Value: value}
}

// Validate checks the parameters of the distribution's kind, reporting
// violations as ErrInvalidParameter against field.
func (d Distribution) Validate(field string) error {
	kind := validation.ErrInvalidParameter
	switch d.Kind {
	case Normal:
		if err := validation.First(
			validation.Finite(kind, field+".mean", d.Mean),
			validation.NonNegative(kind, field+".stdDev", d.StdDev),
		); err != nil {
			return err
		}
	case Uniform:
		if err := validation.First(
			validation.Finite(kind, field+".low", d.Low),
			validation.Finite(kind, field+".high", d.High),
		); err != nil {
			return err
		}
		if d.Low > d.High {
			return validation.InvalidParameter(field+".low", d.Low, fmt.Sprintf("<= high (%v)", d.High))
		}
	case Triangular:
		if err := validation.First(
			validation.Finite(kind, field+".low", d.Low),
			validation.Finite(kind, field+".mode", d.Mode),
			validation.Finite(kind, field+".high", d.High),
		); err != nil {
			return err
		}
		if d.Low > d.High {
			return validation.InvalidParameter(field+".low", d.Low, fmt.Sprintf("<= high (%v)", d.High))
		}
		if d.Mode < d.Low || d.Mode > d.High {
			return validation.InvalidParameter(field+".mode", d.Mode, fmt.Sprintf("in [%v, %v]", d.Low, d.High))
		}
	case Constant:
		return validation.Finite(kind, field+".value", d.Value)
	default:
		return fmt.Errorf("%w: %s.kind = %q, must be one of normal, uniform, triangular, constant",
			validation.ErrInvalidParameter, field, d.Kind)
	}
	return nil
}

// quantiler is the part of a distuv distribution Sample inverts.
type quantiler interface {
	Quantile(p float64) float64
	Mean() float64
}

// bounded returns the distuv form of a uniform or triangular distribution,
// nil for the other kinds and for a zero-width range. Draws come from the
// caller's Source, so no source is attached.
func (d Distribution) bounded() quantiler {
	if d.Low == d.High {
		return nil
	}
	switch d.Kind {
	case Uniform:
		return distuv.Uniform{Min: d.Low, Max: d.High}
	case Triangular:
		return distuv.NewTriangle(d.Low, d.High, d.Mode, nil)
	}
	return nil
}

// Sample draws one value. The distribution must be valid. Uniform and
// triangular draws invert the CDF at src.Float64(); normal draws scale
// src.NormFloat64().
func (d Distribution) Sample(src Source) float64 {
	switch d.Kind {
	case Normal:
		n := d.normal()
		return n.Mu + n.Sigma*src.NormFloat64()
	case Uniform, Triangular:
		u := src.Float64()
		if q := d.bounded(); q != nil {
			return q.Quantile(u)
		}
		return d.Low
	default:
		return d.Value
	}
}

func (d Distribution) normal() distuv.Normal {
	return distuv.Normal{Mu: d.Mean, Sigma: d.StdDev}
}

// Expected is the distribution mean, used as the deterministic base point.
func (d Distribution) Expected() float64 {
	switch d.Kind {
	case Normal:
		return d.normal().Mean()
	case Uniform, Triangular:
		if q := d.bounded(); q != nil {
			return q.Mean()
		}
		return d.Low
	default:
		return d.Value
	}
}

func (d Distribution) String() string {
	switch d.Kind {
	case Normal:
		return fmt.Sprintf("Normal(%g, %g)", d.Mean, d.StdDev)
	case Uniform:
		return fmt.Sprintf("Uniform(%g, %g)", d.Low, d.High)
	case Triangular:
		return fmt.Sprintf("Triangular(%g, %g, %g)", d.Low, d.Mode, d.High)
	case Constant:
		return fmt.Sprintf("Constant(%g)", d.Value)
	default:
		return fmt.Sprintf("Unknown(%q)", d.Kind)
	}
}
