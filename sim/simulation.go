// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"time"

	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/ROVI-org/thevenin/out"
	"github.com/cpmech/gosl/chk"
)

// Solution is any solved result able to report the state @ its final time
type Solution interface {
	FinalState() (y, yp []float64)
}

// Simulation owns one cell model and the live state threaded from step to
// step. A single Simulation must not be shared across goroutines.
type Simulation struct {
	Cell *mdl.Cell // cell model; initialized by NewSimulation

	// live state
	t0  float64   // total experiment time elapsed before the next step [s]
	y0  []float64 // state @ t0
	yp0 []float64 // state rate @ t0
}

// NewSimulation initializes the cell and places it @ the rested condition
func NewSimulation(cell *mdl.Cell) (o *Simulation, err error) {
	err = cell.Init()
	if err != nil {
		return nil, chk.Err("cell initialization failed:\n%v", err)
	}
	o = &Simulation{Cell: cell}
	o.Pre()
	return
}

// Pre resets the live state to the rested condition: initial SOC, zero
// overpotentials, zero hysteresis, ambient temperature, zero current, and
// zero elapsed time
func (o *Simulation) Pre() {
	o.t0 = 0
	o.y0, o.yp0 = o.Cell.RestedState()
}

// PreFrom seeds the live state from a previous solution's final condition.
// The solution must come from a cell with the same number of RC pairs.
func (o *Simulation) PreFrom(soln Solution) (err error) {
	y, yp := soln.FinalState()
	err = o.Cell.CheckState(y)
	if err != nil {
		return
	}
	o.t0 = 0
	o.y0 = cloneState(y)
	o.yp0 = cloneState(yp)
	return
}

// State returns copies of the elapsed time, state, and state rate
func (o *Simulation) State() (t0 float64, y, yp []float64) {
	return o.t0, cloneState(o.y0), cloneState(o.yp0)
}

// RunStep integrates step idx of exp from the live state. On success or on an
// early event exit the live state advances to the final reached condition and
// the elapsed time accumulates; on failure the live state is left untouched.
func (o *Simulation) RunStep(exp *Experiment, idx int) (soln *out.StepSolution, err error) {

	if idx < 0 || idx >= exp.Nsteps() {
		return nil, chk.Err("step index %d is out of range [0, %d)", idx, exp.Nsteps())
	}
	step := exp.Step(idx)

	// load value as a function of relative step time
	value := step.Fcn
	if value == nil {
		v := step.Value
		value = func(t float64) float64 { return v }
	}
	inp := &mdl.Input{Mode: step.Mode, Value: value, T0: o.t0}

	// residual closure
	fcn := func(res []float64, t float64, y, yp []float64) error {
		return o.Cell.Residual(res, t, y, yp, inp)
	}

	// solver
	cf := exp.Opts(idx)
	cf.AlgIdx = o.Cell.AlgIdx()
	solver := dae.New(fcn, cf)

	// stopping criteria
	if len(step.Limits) > 0 {
		var ob mdl.Obs
		ev := func(g []float64, t float64, y, yp []float64) error {
			o.Cell.CalcObs(&ob, t, y, inp.T0)
			for i, l := range step.Limits {
				v, e := ob.Value(l.Name)
				if e != nil {
					return e
				}
				g[i] = v - l.Value
			}
			return nil
		}
		solver.SetEvents(ev, o.metasFor(step))
	}

	// run
	start := time.Now()
	res, err := solver.Solve(step.Tspan, o.y0, o.yp0)
	solvetime := time.Since(start).Seconds()
	if err != nil {
		return nil, chk.Err("step %d (%s) failed:\n%v", idx, step.Mode, err)
	}

	// commit live state
	last := len(res.T) - 1
	o.t0 += res.T[last]
	o.y0 = cloneState(res.Y[last])
	o.yp0 = cloneState(res.Yp[last])

	soln = out.NewStepSolution(o.Cell, res, solvetime)
	return
}

// Run integrates all steps of exp in order, stitching the per-step results
// into one cycle solution. resetState returns the live state to the rested
// condition afterwards; otherwise the state stays @ the final reached
// condition so a follow-up experiment can pick it up. tShift is the small
// time offset inserted between consecutive steps in the stitched time array.
func (o *Simulation) Run(exp *Experiment, resetState bool, tShift float64) (cyc *out.CycleSolution, err error) {
	solns := make([]*out.StepSolution, exp.Nsteps())
	for i := 0; i < exp.Nsteps(); i++ {
		solns[i], err = o.RunStep(exp, i)
		if err != nil {
			return nil, err
		}
	}
	cyc, err = out.NewCycleSolution(solns, tShift)
	if err != nil {
		return nil, err
	}
	if resetState {
		o.Pre()
	}
	return
}

// metasFor attaches direction hints to the stopping criteria. Time always
// grows; for constant-current steps the current sign implies the approach
// direction of voltage, soc, and remaining capacity.
func (o *Simulation) metasFor(step *Step) (metas []dae.Meta) {
	sign := 0.0
	if step.Fcn == nil && (step.Mode == mdl.ModeCurrA || step.Mode == mdl.ModeCurrC) {
		if step.Value > 0 {
			sign = 1
		} else if step.Value < 0 {
			sign = -1
		}
	}
	metas = make([]dae.Meta, len(step.Limits))
	for i, l := range step.Limits {
		dir := 0
		switch l.Name {
		case "time_s", "time_min", "time_h":
			dir = 1
		case "voltage_V", "soc", "capacity_Ah":
			dir = -int(sign)
		}
		metas[i] = dae.Meta{Name: l.Name, Direction: dir, Terminal: true}
	}
	return
}

func cloneState(v []float64) []float64 {
	w := make([]float64, len(v))
	copy(w, v)
	return w
}
