package analysis

import (
	"fmt"
	"strings"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/rangestore"
)

// Fields lists the state components a series can be extracted for.
func Fields() []string { return []string{"x", "y", "vx", "vy", "r", "speed"} }

// Series extracts one state component per record, in record order.
func Series(recs []rangestore.Record, field string) ([]float64, error) {
	sel, err := selector(field)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(recs))
	for i := range recs {
		out[i] = sel(recs[i].State)
	}
	return out, nil
}

// SampleStep returns the series' sample spacing, the width of its first
// interval. Zero when there are no records.
func SampleStep(recs []rangestore.Record) float64 {
	if len(recs) == 0 {
		return 0
	}
	return recs[0].End - recs[0].Start
}

func selector(field string) (func(orbit.State) float64, error) {
	switch field {
	case "x":
		return func(s orbit.State) float64 { return s.X }, nil
	case "y":
		return func(s orbit.State) float64 { return s.Y }, nil
	case "vx":
		return func(s orbit.State) float64 { return s.VX }, nil
	case "vy":
		return func(s orbit.State) float64 { return s.VY }, nil
	case "r":
		return orbit.State.Radius, nil
	case "speed":
		return orbit.State.Speed, nil
	}
	return nil, fmt.Errorf("unknown field %q (have %s)", field, strings.Join(Fields(), ", "))
}
