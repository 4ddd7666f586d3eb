package damage

import "math"

// Value is an expected damage figure together with its standard deviation.
type Value struct {
	Expected float64
	StdDev   float64
}

// Fixed returns a value with no variance.
func Fixed(v float64) Value {
	return Value{Expected: v}
}

// Zero reports whether the value carries no damage at all.
func (v Value) Zero() bool {
	return v.Expected == 0 && v.StdDev == 0
}

// Scale multiplies by a constant.
func (v Value) Scale(k float64) Value {
	return Value{Expected: v.Expected * k, StdDev: v.StdDev * math.Abs(k)}
}

// Times multiplies two independent random values.
func (v Value) Times(o Value) Value {
	e := v.Expected * o.Expected
	second := (v.variance() + v.Expected*v.Expected) * (o.variance() + o.Expected*o.Expected)
	variance := second - e*e
	if variance < 0 {
		variance = 0
	}
	return Value{Expected: e, StdDev: math.Sqrt(variance)}
}

// Plus adds two independent random values.
func (v Value) Plus(o Value) Value {
	return Value{
		Expected: v.Expected + o.Expected,
		StdDev:   math.Sqrt(v.variance() + o.variance()),
	}
}

func (v Value) variance() float64 {
	return v.StdDev * v.StdDev
}

// Sum adds a list of independent values.
func Sum(values ...Value) Value {
	var out Value
	for _, v := range values {
		out = out.Plus(v)
	}
	return out
}
