// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out holds solved results: single-step solutions, stitched cycle
// solutions, and the query/plotting helpers built on top of them
package out

import (
	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// StepSolution holds the solved result of one experimental step. All arrays
// are owned copies; mutating the source solver output afterwards has no
// effect here.
type StepSolution struct {

	// exit condition
	Success bool   // integration reached the end time or a stopping criterion
	Status  int    // solver status flag
	Message string // human readable exit description

	// raw solution
	T  []float64   // relative step time [s]
	Y  [][]float64 // state @ each time sample
	Yp [][]float64 // state rate @ each time sample

	// events
	IEvents  []int       // index of the triggered stopping criterion
	TEvents  []float64   // relative time of each trigger [s]
	YEvents  [][]float64 // state @ each trigger
	YpEvents [][]float64 // state rate @ each trigger

	// statistics
	Nfev      int     // number of residual evaluations
	Njev      int     // number of Jacobian evaluations
	Nsteps    int     // number of internal solver steps
	Solvetime float64 // wall-clock integration time [s]

	// derived
	Vars map[string][]float64 // named variables @ each time sample
	nrc  int                  // number of RC pairs
}

// NewStepSolution copies the solver result and extracts the named variables.
// Time stays relative to the step start here; stitching into total experiment
// time happens in CycleSolution.
func NewStepSolution(cell *mdl.Cell, res *dae.Result, solvetime float64) (o *StepSolution) {
	o = &StepSolution{
		Success:   res.Success,
		Status:    res.Status,
		Message:   res.Message,
		T:         cloneVec(res.T),
		Y:         cloneMat(res.Y),
		Yp:        cloneMat(res.Yp),
		IEvents:   cloneInts(res.IEvents),
		TEvents:   cloneVec(res.TEvents),
		YEvents:   cloneMat(res.YEvents),
		YpEvents:  cloneMat(res.YpEvents),
		Nfev:      res.Nfev,
		Njev:      res.Njev,
		Nsteps:    res.Nsteps,
		Solvetime: solvetime,
		nrc:       cell.Nrc,
	}
	o.fillVars(cell)
	return
}

// Keys returns the available variable names, in a fixed order
func (o *StepSolution) Keys() []string {
	keys := []string{"time_s", "time_min", "time_h", "soc", "temperature_K",
		"voltage_V", "hysteresis_V", "current_A", "current_C", "power_W",
		"capacity_Ah", "eta0_V"}
	for j := 0; j < o.nrc; j++ {
		keys = append(keys, io.Sf("eta%d_V", j+1))
	}
	return keys
}

// Var returns one named variable array
func (o *StepSolution) Var(key string) (vals []float64, err error) {
	vals, ok := o.Vars[key]
	if !ok {
		return nil, chk.Err("variable named %q is unavailable; valid names are %v", key, o.Keys())
	}
	return
}

// NumRC returns the number of RC pairs of the solved cell
func (o *StepSolution) NumRC() int {
	return o.nrc
}

// FinalState returns copies of the state and state rate @ the final time
func (o *StepSolution) FinalState() (y, yp []float64) {
	last := len(o.T) - 1
	return cloneVec(o.Y[last]), cloneVec(o.Yp[last])
}

func (o *StepSolution) fillVars(cell *mdl.Cell) {
	p := cell.Layout()
	n := len(o.T)
	get := func() []float64 { return make([]float64, n) }

	ts, tm, th := get(), get(), get()
	soc, temp, volt := get(), get(), get()
	hyst, curr, crate := get(), get(), get()
	pow, cap, eta0 := get(), get(), get()
	etaj := make([][]float64, cell.Nrc)
	for j := range etaj {
		etaj[j] = get()
	}

	for i, t := range o.T {
		y := o.Y[i]
		ts[i] = t
		tm[i] = t / 60.0
		th[i] = t / 3600.0
		soc[i] = y[p.Soc]
		temp[i] = y[p.Temp]
		volt[i] = cell.Voltage(y)
		hyst[i] = y[p.Hyst]
		curr[i] = y[p.Curr]
		crate[i] = y[p.Curr] / cell.Capacity
		pow[i] = y[p.Curr] * volt[i]
		cap[i] = y[p.Soc] * cell.Capacity
		eta0[i] = y[p.Curr] * cell.R0.F(y[p.Soc], y[p.Temp])
		for j, jj := range p.EtaJ {
			etaj[j][i] = y[jj]
		}
	}

	o.Vars = map[string][]float64{
		"time_s": ts, "time_min": tm, "time_h": th,
		"soc": soc, "temperature_K": temp, "voltage_V": volt,
		"hysteresis_V": hyst, "current_A": curr, "current_C": crate,
		"power_W": pow, "capacity_Ah": cap, "eta0_V": eta0,
	}
	for j := range etaj {
		o.Vars[io.Sf("eta%d_V", j+1)] = etaj[j]
	}
}

// clone makes a deep copy
func (o *StepSolution) clone() (c *StepSolution) {
	c = &StepSolution{
		Success:   o.Success,
		Status:    o.Status,
		Message:   o.Message,
		T:         cloneVec(o.T),
		Y:         cloneMat(o.Y),
		Yp:        cloneMat(o.Yp),
		IEvents:   cloneInts(o.IEvents),
		TEvents:   cloneVec(o.TEvents),
		YEvents:   cloneMat(o.YEvents),
		YpEvents:  cloneMat(o.YpEvents),
		Nfev:      o.Nfev,
		Njev:      o.Njev,
		Nsteps:    o.Nsteps,
		Solvetime: o.Solvetime,
		nrc:       o.nrc,
	}
	c.Vars = make(map[string][]float64, len(o.Vars))
	for k, v := range o.Vars {
		c.Vars[k] = cloneVec(v)
	}
	return
}

// CycleSolution stitches the results of sequential steps into one global
// time line. Step boundaries are separated by a small positive time shift so
// the stitched time is strictly increasing.
type CycleSolution struct {

	// per-step exit conditions
	Success []bool
	Status  []int
	Message []string

	// stitched solution; time is total experiment time [s]
	T  []float64
	Y  [][]float64
	Yp [][]float64

	// statistics accumulated over all steps
	Nfev      int
	Njev      int
	Nsteps    int
	Solvetime float64

	// derived
	Vars map[string][]float64

	steps  []*StepSolution
	tshift float64
}

// NewCycleSolution stitches solns in order. tShift is the offset [s] inserted
// between the last sample of one step and the first sample of the next; it
// must be positive so the stitched time is strictly increasing.
func NewCycleSolution(solns []*StepSolution, tShift float64) (o *CycleSolution, err error) {
	if len(solns) == 0 {
		return nil, chk.Err("cannot stitch an empty list of step solutions")
	}
	if tShift <= 0 {
		return nil, chk.Err("time shift must be positive. tShift=%g is invalid", tShift)
	}
	o = &CycleSolution{tshift: tShift}
	for i, s := range solns {
		if s == nil {
			return nil, chk.Err("step solution %d is nil", i)
		}
		err = o.AppendStep(s)
		if err != nil {
			return nil, err
		}
	}
	return
}

// Nsolns returns the number of stitched steps
func (o *CycleSolution) Nsolns() int {
	return len(o.steps)
}

// AppendStep stitches one more step solution onto the end. The step must
// come from a cell with the same number of RC pairs.
func (o *CycleSolution) AppendStep(s *StepSolution) (err error) {
	if len(o.steps) > 0 && s.NumRC() != o.steps[0].NumRC() {
		return chk.Err("cannot append a solution with %d RC pairs onto one with %d", s.NumRC(), o.steps[0].NumRC())
	}
	offset := o.tshift
	if len(o.T) > 0 {
		offset += o.T[len(o.T)-1]
	} else {
		offset = 0
	}

	// validate the new samples against the boundary before any mutation
	prev := -o.tshift
	if len(o.T) > 0 {
		prev = o.T[len(o.T)-1]
	}
	for i, t := range s.T {
		if offset+t <= prev {
			return chk.Err("stitched time must be strictly increasing. sample %d of the appended step lands @ t=%g after t=%g", i, offset+t, prev)
		}
		prev = offset + t
	}

	c := s.clone()
	o.steps = append(o.steps, c)
	o.Success = append(o.Success, c.Success)
	o.Status = append(o.Status, c.Status)
	o.Message = append(o.Message, c.Message)
	for i, t := range c.T {
		o.T = append(o.T, offset+t)
		o.Y = append(o.Y, c.Y[i])
		o.Yp = append(o.Yp, c.Yp[i])
	}
	o.Nfev += c.Nfev
	o.Njev += c.Njev
	o.Nsteps += c.Nsteps
	o.Solvetime += c.Solvetime
	o.fillVars()
	return
}

// AppendCycle stitches all steps of another cycle solution onto the end
func (o *CycleSolution) AppendCycle(c *CycleSolution) (err error) {
	for _, s := range c.steps {
		err = o.AppendStep(s)
		if err != nil {
			return
		}
	}
	return
}

// GetStep returns a deep copy of the solution of step i, with relative time
func (o *CycleSolution) GetStep(i int) (s *StepSolution, err error) {
	if i < 0 || i >= len(o.steps) {
		return nil, chk.Err("step index %d is out of range [0, %d)", i, len(o.steps))
	}
	return o.steps[i].clone(), nil
}

// GetSteps returns a new cycle solution stitched from steps [first, last]
func (o *CycleSolution) GetSteps(first, last int) (c *CycleSolution, err error) {
	if first < 0 || last >= len(o.steps) || first > last {
		return nil, chk.Err("step range [%d, %d] is invalid for %d steps", first, last, len(o.steps))
	}
	return NewCycleSolution(o.steps[first:last+1], o.tshift)
}

// Keys returns the available variable names, in a fixed order
func (o *CycleSolution) Keys() []string {
	return o.steps[0].Keys()
}

// Var returns one named variable array over the stitched time line
func (o *CycleSolution) Var(key string) (vals []float64, err error) {
	vals, ok := o.Vars[key]
	if !ok {
		return nil, chk.Err("variable named %q is unavailable; valid names are %v", key, o.Keys())
	}
	return
}

// FinalState returns copies of the state and state rate @ the final time
func (o *CycleSolution) FinalState() (y, yp []float64) {
	return o.steps[len(o.steps)-1].FinalState()
}

// fillVars concatenates the per-step variables; the time variables are
// recomputed from the stitched time line
func (o *CycleSolution) fillVars() {
	n := len(o.T)
	o.Vars = make(map[string][]float64)
	for _, key := range o.Keys() {
		vals := make([]float64, 0, n)
		for _, s := range o.steps {
			vals = append(vals, s.Vars[key]...)
		}
		o.Vars[key] = vals
	}
	ts, tm, th := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, t := range o.T {
		ts[i] = t
		tm[i] = t / 60.0
		th[i] = t / 3600.0
	}
	o.Vars["time_s"] = ts
	o.Vars["time_min"] = tm
	o.Vars["time_h"] = th
}

// auxiliary //////////////////////////////////////////////////////////////////

func cloneVec(v []float64) []float64 {
	w := make([]float64, len(v))
	copy(w, v)
	return w
}

func cloneInts(v []int) []int {
	w := make([]int, len(v))
	copy(w, v)
	return w
}

func cloneMat(m [][]float64) [][]float64 {
	w := make([][]float64, len(m))
	for i := range m {
		w[i] = cloneVec(m[i])
	}
	return w
}
