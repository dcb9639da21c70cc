// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ana provides closed-form solutions used to verify numerical results.
package ana

import "math"

// ConstCurrent is the exact response of a cell with constant parameters
// under a constant applied current, starting from rest. The open-circuit
// voltage is linear in soc, ocv = A + B*soc, hysteresis is disabled, and a
// single RC pair may be present (set C1 = 0 for none):
//
//	soc(t) = soc0 - I*t/(3600*cap)
//	eta(t) = I*R1*(1 - exp(-t/(R1*C1)))
//	V(t)   = A + B*soc(t) - eta(t) - I*R0
type ConstCurrent struct {
	I    float64 // applied current [A]; positive discharges
	Cap  float64 // capacity [Ah]
	Soc0 float64 // initial state of charge
	A    float64 // ocv intercept [V]
	B    float64 // ocv slope [V/soc]
	R0   float64 // series resistance [Ohm]
	R1   float64 // RC-branch resistance [Ohm]
	C1   float64 // RC-branch capacitance [F]; 0 disables the branch
}

// Soc computes the state of charge @ time t
func (o ConstCurrent) Soc(t float64) float64 {
	return o.Soc0 - o.I*t/(3600.0*o.Cap)
}

// Eta computes the RC-branch overpotential @ time t
func (o ConstCurrent) Eta(t float64) float64 {
	if o.C1 <= 0 {
		return 0
	}
	return o.I * o.R1 * (1.0 - math.Exp(-t/(o.R1*o.C1)))
}

// Volt computes the terminal voltage @ time t
func (o ConstCurrent) Volt(t float64) float64 {
	return o.A + o.B*o.Soc(t) - o.Eta(t) - o.I*o.R0
}
