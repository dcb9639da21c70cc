// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// control modes
const (
	ModeCurrA = "current_A" // applied current [A]
	ModeCurrC = "current_C" // applied current [C-rate * capacity]
	ModeVoltV = "voltage_V" // applied voltage [V]
	ModePowW  = "power_W"   // applied power [W]
)

// ObsNames lists the observables available for step limits and solutions
var ObsNames = []string{
	"soc", "temperature_K", "current_A", "current_C", "voltage_V",
	"power_W", "capacity_Ah", "time_s", "time_min", "time_h",
}

// Ptr maps physical quantities to slots in the flat state vector.
// The layout for n RC pairs is:
//
//	[0]=soc  [1]=hyst  [2..n+1]=eta_j  [n+2]=T_cell  [n+3]=current
//
// The current slot is the single algebraic variable; under current control
// its residual reduces to I - I_applied(t) = 0, under voltage/power control
// it carries the respective closure equation.
type Ptr struct {
	Soc  int   // state-of-charge slot
	Hyst int   // hysteresis voltage slot
	EtaJ []int // RC overpotential slots, in branch order
	Temp int   // temperature slot (present even when isothermal)
	Curr int   // current slot (algebraic)
	Size int   // total state-vector size = n+4
}

// Cell holds the equivalent-circuit parameter set: an OCV source, a series
// resistor R0, n parallel RC branches, a hysteresis branch, and a lumped
// thermal state. Edit-and-rerun: changing any field after Init requires
// calling Init again to rebuild the derived layout.
type Cell struct {

	// scalar parameters
	Nrc        int     // number of RC pairs (n ≥ 0)
	Soc0       float64 // initial state of charge [-]
	Capacity   float64 // maximum capacity [Ah]
	Ce         float64 // coulombic efficiency [-]
	Gamma      float64 // hysteresis approach rate [-]
	Mass       float64 // total cell mass [kg]
	Isothermal bool    // clamp temperature at Tinf
	Cp         float64 // specific heat capacity [J/kg/K]
	Tinf       float64 // ambient temperature [K]
	Htherm     float64 // convective coefficient [W/m2/K]
	Atherm     float64 // heat-loss area [m2]

	// functional parameters
	OCV   Func   // open-circuit voltage [V]: OCV(soc)
	Mhyst Func   // maximum hysteresis magnitude [V]: M(soc)
	R0    Func   // series resistance [Ohm]: R0(soc,T)
	R     []Func // RC-branch resistances [Ohm]: Rj(soc,T); length must equal Nrc
	C     []Func // RC-branch capacitances [F]: Cj(soc,T); length must equal Nrc

	// derived
	ptr  Ptr       // state-vector layout
	mass []float64 // diagonal of the mass matrix
	drv  bool      // derived data is ready
}

// Input holds the control data for one experimental step, bound into the
// residual by the step executor
type Input struct {
	Mode  string                  // control mode; e.g. "current_A"
	Value func(t float64) float64 // load value @ relative step time [s]
	T0    float64                 // accumulated experiment time at step start [s]
}

// Init validates the parameter set and (re)builds the derived layout and
// mass matrix. Must be called before any other method, and again after any
// field edit.
func (o *Cell) Init() (err error) {
	o.drv = false
	if o.Nrc < 0 {
		return chk.Err("number of RC pairs must be non-negative. Nrc=%d is invalid", o.Nrc)
	}
	if len(o.R) != o.Nrc || len(o.C) != o.Nrc {
		return chk.Err("need exactly %d R and C functions to match Nrc. len(R)=%d and len(C)=%d are invalid", o.Nrc, len(o.R), len(o.C))
	}
	if o.OCV == nil {
		return chk.Err("OCV function is missing")
	}
	if o.Mhyst == nil {
		return chk.Err("Mhyst function is missing")
	}
	if o.R0 == nil {
		return chk.Err("R0 function is missing")
	}
	for j := 0; j < o.Nrc; j++ {
		if o.R[j] == nil {
			return chk.Err("R%d function is missing", j+1)
		}
		if o.C[j] == nil {
			return chk.Err("C%d function is missing", j+1)
		}
	}
	if o.Soc0 < 0 || o.Soc0 > 1 {
		return chk.Err("initial state of charge must be within [0,1]. Soc0=%g is invalid", o.Soc0)
	}
	if o.Capacity <= 0 {
		return chk.Err("capacity must be positive. Capacity=%g is invalid", o.Capacity)
	}
	if o.Ce <= 0 || o.Ce > 1 {
		return chk.Err("coulombic efficiency must be within (0,1]. Ce=%g is invalid", o.Ce)
	}
	if o.Gamma < 0 {
		return chk.Err("hysteresis approach rate must be non-negative. Gamma=%g is invalid", o.Gamma)
	}
	if o.Mass <= 0 || o.Cp <= 0 {
		return chk.Err("mass and specific heat must be positive. Mass=%g and Cp=%g are invalid", o.Mass, o.Cp)
	}
	if o.Tinf <= 0 {
		return chk.Err("ambient temperature must be positive [K]. Tinf=%g is invalid", o.Tinf)
	}
	if o.Htherm < 0 || o.Atherm < 0 {
		return chk.Err("convective coefficient and heat-loss area must be non-negative. Htherm=%g and Atherm=%g are invalid", o.Htherm, o.Atherm)
	}

	// layout
	o.ptr.Soc = 0
	o.ptr.Hyst = 1
	o.ptr.EtaJ = make([]int, o.Nrc)
	for j := 0; j < o.Nrc; j++ {
		o.ptr.EtaJ[j] = 2 + j
	}
	o.ptr.Temp = o.Nrc + 2
	o.ptr.Curr = o.Nrc + 3
	o.ptr.Size = o.Nrc + 4

	// mass matrix: ones for the differential rows, zero for the algebraic
	// current row
	o.mass = make([]float64, o.ptr.Size)
	for i := 0; i < o.ptr.Size; i++ {
		o.mass[i] = 1
	}
	o.mass[o.ptr.Curr] = 0

	o.drv = true
	return
}

// Layout returns a copy of the state-vector layout
func (o *Cell) Layout() (p Ptr) {
	p = o.ptr
	p.EtaJ = make([]int, len(o.ptr.EtaJ))
	copy(p.EtaJ, o.ptr.EtaJ)
	return
}

// Size returns the total state-vector size (n+4)
func (o *Cell) Size() int {
	return o.ptr.Size
}

// NumDiff returns the number of differential slots (n+3); i.e. everything
// except the algebraic current slot
func (o *Cell) NumDiff() int {
	return o.ptr.Size - 1
}

// AlgIdx returns the algebraic variable indices
func (o *Cell) AlgIdx() []int {
	return []int{o.ptr.Curr}
}

// MassDiag returns a copy of the diagonal mass-matrix vector
func (o *Cell) MassDiag() (m []float64) {
	m = make([]float64, len(o.mass))
	copy(m, o.mass)
	return
}

// RestedState returns the rested initial condition @ Soc0: zero current,
// zero hysteresis, relaxed overpotentials, and ambient temperature
func (o *Cell) RestedState() (y, yp []float64) {
	y = make([]float64, o.ptr.Size)
	yp = make([]float64, o.ptr.Size)
	y[o.ptr.Soc] = o.Soc0
	y[o.ptr.Temp] = o.Tinf
	return
}

// CheckState verifies that an externally supplied state vector matches this
// cell's layout; used when continuing from a previous solution
func (o *Cell) CheckState(y []float64) (err error) {
	if len(y) != o.ptr.Size {
		return chk.Err("state size %d is incompatible with this cell (need %d; i.e. %d RC pairs)", len(y), o.ptr.Size, o.Nrc)
	}
	return
}

// Voltage computes the cell voltage from the state vector:
//
//	V = OCV(soc) + h - Σ eta_j - I*R0(soc,T)
func (o *Cell) Voltage(y []float64) float64 {
	soc := y[o.ptr.Soc]
	T := y[o.ptr.Temp]
	sum := 0.0
	for _, j := range o.ptr.EtaJ {
		sum += y[j]
	}
	return o.OCV.F(soc, T) + y[o.ptr.Hyst] - sum - y[o.ptr.Curr]*o.R0.F(soc, T)
}

// Residual computes the DAE residuals, res = M*yp - rhs(t, y, inp).
// Positive current discharges the cell. The function is stateless and
// deterministic; a panic inside a functional parameter propagates to the
// caller unmodified.
func (o *Cell) Residual(res []float64, t float64, y, yp []float64, inp *Input) (err error) {
	p := &o.ptr

	// state
	soc := y[p.Soc]
	hyst := y[p.Hyst]
	T := y[p.Temp]
	curr := y[p.Curr]

	// state-dependent properties
	ocv := o.OCV.F(soc, T)
	r0 := o.R0.F(soc, T)

	// voltage and power
	sum := 0.0
	for _, j := range p.EtaJ {
		sum += y[j]
	}
	volt := ocv + hyst - sum - curr*r0
	pow := curr * volt

	qinv := 1.0 / (3600.0 * o.Capacity)

	// coulombic efficiency only applies on charge
	ce := o.Ce
	if curr > 0 {
		ce = 1
	}

	// state of charge (differential)
	res[p.Soc] = yp[p.Soc] + ce*curr*qinv

	// hysteresis (differential); zero rate at exactly zero current
	rate := 0.0
	if curr != 0 {
		coeff := math.Abs(ce * curr * o.Gamma * qinv)
		dir := -1.0
		if curr < 0 {
			dir = 1.0
		}
		rate = coeff * (dir*o.Mhyst.F(soc, T) - hyst)
	}
	res[p.Hyst] = yp[p.Hyst] - rate

	// RC overpotentials (differential)
	for k, j := range p.EtaJ {
		rj := o.R[k].F(soc, T)
		cj := o.C[k].F(soc, T)
		res[j] = yp[j] - (-y[j]/(rj*cj) + curr/cj)
	}

	// temperature (differential); clamped when isothermal
	if o.Isothermal {
		res[p.Temp] = yp[p.Temp]
	} else {
		qgen := curr * (ocv + hyst - volt)
		qconv := o.Htherm * o.Atherm * (o.Tinf - T)
		res[p.Temp] = yp[p.Temp] - (qgen+qconv)/(o.Mass*o.Cp)
	}

	// control-mode closure (algebraic)
	switch inp.Mode {
	case ModeCurrA:
		res[p.Curr] = curr - inp.Value(t)
	case ModeCurrC:
		res[p.Curr] = curr - o.Capacity*inp.Value(t)
	case ModeVoltV:
		res[p.Curr] = volt - inp.Value(t)
	case ModePowW:
		res[p.Curr] = pow - inp.Value(t)
	default:
		return chk.Err("control mode %q is invalid", inp.Mode)
	}
	return
}

// Obs holds the derived physical observables @ one time instant
type Obs struct {
	Soc     float64 // state of charge [-]
	TempK   float64 // cell temperature [K]
	CurrA   float64 // current [A]
	CurrC   float64 // current [1/h]; i.e. C-rate
	VoltV   float64 // cell voltage [V]
	PowW    float64 // power [W]
	CapAh   float64 // remaining capacity [Ah]
	TimeS   float64 // total experiment time [s]
	TimeMin float64 // total experiment time [min]
	TimeH   float64 // total experiment time [h]
}

// CalcObs fills ob with the observables @ relative step time t
func (o *Cell) CalcObs(ob *Obs, t float64, y []float64, t0 float64) {
	p := &o.ptr
	total := t0 + t
	ob.Soc = y[p.Soc]
	ob.TempK = y[p.Temp]
	ob.CurrA = y[p.Curr]
	ob.CurrC = y[p.Curr] / o.Capacity
	ob.VoltV = o.Voltage(y)
	ob.PowW = y[p.Curr] * ob.VoltV
	ob.CapAh = y[p.Soc] * o.Capacity
	ob.TimeS = total
	ob.TimeMin = total / 60.0
	ob.TimeH = total / 3600.0
}

// Value returns one observable by name
func (ob *Obs) Value(name string) (val float64, err error) {
	switch name {
	case "soc":
		val = ob.Soc
	case "temperature_K":
		val = ob.TempK
	case "current_A":
		val = ob.CurrA
	case "current_C":
		val = ob.CurrC
	case "voltage_V":
		val = ob.VoltV
	case "power_W":
		val = ob.PowW
	case "capacity_Ah":
		val = ob.CapAh
	case "time_s":
		val = ob.TimeS
	case "time_min":
		val = ob.TimeMin
	case "time_h":
		val = ob.TimeH
	default:
		err = chk.Err("observable named %q is invalid; valid names are %v", name, ObsNames)
	}
	return
}
