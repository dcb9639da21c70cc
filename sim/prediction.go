// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
)

// TransientState describes the cell state in physical variables. It is the
// input and output of Prediction.TakeStep; VoltV is the predicted terminal
// voltage and is only set on returned states.
type TransientState struct {
	Soc   float64   // state of charge [-]
	TempK float64   // cell temperature [K]
	Hyst  float64   // hysteresis voltage [V]
	EtaJ  []float64 // RC overpotentials [V], in branch order; length must equal Nrc
	VoltV float64   // predicted terminal voltage [V]
}

// Prediction advances a cell one step at a time from caller-owned states.
// Unlike Simulation it keeps no live state: TakeStep takes the prior state as
// an explicit input and returns the new state as an explicit output, which is
// the shape prediction-correction algorithms (e.g. Kalman filters) need.
type Prediction struct {
	Cell *mdl.Cell   // cell model
	Opts *dae.Config // solver options
}

// NewPrediction returns a prediction wrapper around cell. cf == nil means
// default solver options.
func NewPrediction(cell *mdl.Cell, cf *dae.Config) (o *Prediction, err error) {
	err = cell.Init()
	if err != nil {
		return
	}
	if cf == nil {
		cf = dae.NewConfig()
	}
	return &Prediction{Cell: cell, Opts: cf}, nil
}

// Constant wraps a fixed demand value as a load function.
func Constant(value float64) LoadFn {
	return func(t float64) float64 { return value }
}

// TakeStep predicts the state after dt seconds under the demand current
// load(t), with t relative to the given state. The input state is not
// modified; a solver failure returns an error and no state.
func (o *Prediction) TakeStep(state *TransientState, load LoadFn, dt float64) (next *TransientState, err error) {

	// validate before touching anything
	p := o.Cell.Layout()
	if len(state.EtaJ) != len(p.EtaJ) {
		return nil, chk.Err("state has %d RC overpotentials but the cell has %d RC pairs", len(state.EtaJ), len(p.EtaJ))
	}
	if load == nil {
		return nil, chk.Err("a demand current function is required")
	}
	if dt <= 0 {
		return nil, chk.Err("time step must be positive. dt=%g is invalid", dt)
	}

	// physical state => state vector; the current slot starts from a zero
	// guess and is fixed by the consistent initialization
	y := make([]float64, p.Size)
	yp := make([]float64, p.Size)
	y[p.Soc] = state.Soc
	y[p.Hyst] = state.Hyst
	for j, idx := range p.EtaJ {
		y[idx] = state.EtaJ[j]
	}
	y[p.Temp] = state.TempK
	err = o.Cell.CheckState(y)
	if err != nil {
		return
	}

	// single current-controlled step
	inp := &mdl.Input{Mode: mdl.ModeCurrA, Value: load, T0: 0}
	fcn := func(res []float64, t float64, y, yp []float64) error {
		return o.Cell.Residual(res, t, y, yp, inp)
	}
	cf := o.Opts.Merge(nil)
	cf.AlgIdx = o.Cell.AlgIdx()
	res, err := dae.New(fcn, cf).Solve([]float64{0, dt}, y, yp)
	if err != nil {
		return nil, chk.Err("prediction step failed:\n%v", err)
	}

	// state vector => physical state
	last := res.Y[len(res.Y)-1]
	next = &TransientState{
		Soc:   last[p.Soc],
		TempK: last[p.Temp],
		Hyst:  last[p.Hyst],
		EtaJ:  make([]float64, len(p.EtaJ)),
		VoltV: o.Cell.Voltage(last),
	}
	for j, idx := range p.EtaJ {
		next.EtaJ[j] = last[idx]
	}
	return
}
