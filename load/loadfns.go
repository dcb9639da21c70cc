// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package load builds time-varying load profiles. A profile maps relative
// step time [s] to a demand value in the units of the step's control mode.
// The ramped profiles smooth transitions from rest into a constant load so
// the solver does not face a hard discontinuity.
package load

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
)

// Fn maps relative step time [s] to a load value
type Fn func(t float64) float64

// Ramp returns a profile that ramps continuously with slope m [units/s]
// from intercept b [units]
func Ramp(m, b float64) Fn {
	return func(t float64) float64 { return m*t + b }
}

// Ramp2Const returns a profile that ramps with slope m [units/s] from
// intercept b [units] until the constant step value is reached, constant
// afterwards. A sigmoid smooths the transition between the two pieces; large
// sharpness values reduce the smoothing.
func Ramp2Const(m, step, b, sharpness float64) (fn Fn, err error) {
	if m == 0 || math.IsInf(m, 0) {
		return nil, chk.Err("slope must be nonzero and finite. m=%g is invalid", m)
	}
	if m > 0 && b >= step {
		return nil, chk.Err("step is unreachable with m=%g > 0 and b=%g >= step=%g", m, b, step)
	}
	if m < 0 && b <= step {
		return nil, chk.Err("step is unreachable with m=%g < 0 and b=%g <= step=%g", m, b, step)
	}
	if sharpness <= 0 {
		return nil, chk.Err("sharpness must be positive. sharpness=%g is invalid", sharpness)
	}
	k := sharpness
	if m < 0 {
		k = -sharpness
	}
	fn = func(t float64) float64 {
		linear := m*t + b
		sigmoid := 1.0 / (1.0 + math.Exp(-k*(linear-step)))
		return (1.0-sigmoid)*linear + sigmoid*step
	}
	return
}

// Steps returns a piecewise-constant profile: y0 before tp[0], then yp[i]
// within [tp[i], tp[i+1]), then yp[last] afterwards. tp must be strictly
// increasing and the same length as yp.
func Steps(tp, yp []float64, y0 float64) (fn Fn, err error) {
	err = checkSteps(tp, yp)
	if err != nil {
		return
	}
	tt, yy := cloneP(tp), cloneP(yp)
	fn = func(t float64) float64 {
		if math.IsNaN(t) {
			return math.NaN()
		}
		i := sort.SearchFloat64s(tt, t)
		if i < len(tt) && tt[i] == t {
			i++ // right-continuous @ transition times
		}
		if i == 0 {
			return y0
		}
		return yy[i-1]
	}
	return
}

// RampedSteps returns the Steps profile with each transition smoothed by a
// linear ramp of duration tRamp [s] starting @ the transition time
func RampedSteps(tp, yp []float64, tRamp, y0 float64) (fn Fn, err error) {
	err = checkSteps(tp, yp)
	if err != nil {
		return
	}
	if tRamp <= 0 {
		return nil, chk.Err("ramp duration must be positive. tRamp=%g is invalid", tRamp)
	}
	for i := 1; i < len(tp); i++ {
		if tp[i]-tp[i-1] < tRamp {
			return nil, chk.Err("ramp duration %g does not fit within the interval [%g, %g]", tRamp, tp[i-1], tp[i])
		}
	}
	tt, yy := cloneP(tp), cloneP(yp)
	fn = func(t float64) float64 {
		if math.IsNaN(t) {
			return math.NaN()
		}
		i := sort.SearchFloat64s(tt, t)
		if i < len(tt) && tt[i] == t {
			i++
		}
		if i == 0 {
			return y0
		}
		prev := y0
		if i > 1 {
			prev = yy[i-2]
		}
		next := yy[i-1]
		if dt := t - tt[i-1]; dt < tRamp {
			return prev + (next-prev)*dt/tRamp
		}
		return next
	}
	return
}

func checkSteps(tp, yp []float64) (err error) {
	if len(tp) == 0 {
		return chk.Err("at least one transition time is required")
	}
	if len(tp) != len(yp) {
		return chk.Err("tp and yp must be the same length. len(tp)=%d and len(yp)=%d are invalid", len(tp), len(yp))
	}
	for i := 1; i < len(tp); i++ {
		if tp[i] <= tp[i-1] {
			return chk.Err("tp must be strictly increasing. tp[%d]=%g and tp[%d]=%g are invalid", i-1, tp[i-1], i, tp[i])
		}
	}
	return
}

func cloneP(v []float64) []float64 {
	w := make([]float64, len(v))
	copy(w, v)
	return w
}
