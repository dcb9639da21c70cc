// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"testing"

	"github.com/ROVI-org/thevenin/ana"
	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
)

// rcCell returns an isothermal cell with one RC pair and constant parameters
func rcCell(tst *testing.T) *mdl.Cell {
	cell := &mdl.Cell{
		Nrc:        1,
		Soc0:       1.0,
		Capacity:   75.0,
		Ce:         1.0,
		Gamma:      0.0,
		Mass:       1.9,
		Isothermal: true,
		Cp:         745.0,
		Tinf:       300.0,
		OCV:        mdl.Fn(func(soc, T float64) float64 { return 3.0 + 1.2*soc }),
		Mhyst:      mdl.Fn(func(soc, T float64) float64 { return 0.05 }),
		R0:         mdl.Fn(func(soc, T float64) float64 { return 0.01 }),
		R:          []mdl.Func{mdl.Fn(func(soc, T float64) float64 { return 0.004 })},
		C:          []mdl.Func{mdl.Fn(func(soc, T float64) float64 { return 5000.0 })},
	}
	err := cell.Init()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return nil
	}
	return cell
}

func Test_pred01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pred01. single prediction step vs closed form")

	cell := rcCell(tst)
	if cell == nil {
		return
	}
	cf := dae.NewConfig()
	cf.Atol = 1e-10
	cf.Rtol = 1e-8
	prd, err := NewPrediction(cell, cf)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	sol := ana.ConstCurrent{
		I: 37.5, Cap: 75.0, Soc0: 1.0,
		A: 3.0, B: 1.2,
		R0: 0.01, R1: 0.004, C1: 5000.0,
	}

	state := &TransientState{Soc: 1.0, TempK: 300.0, Hyst: 0.0, EtaJ: []float64{0.0}}
	next, err := prd.TakeStep(state, Constant(37.5), 20.0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Float64(tst, "soc", 1e-9, next.Soc, sol.Soc(20))
	chk.Float64(tst, "eta1", 1e-5, next.EtaJ[0], sol.Eta(20))
	chk.Float64(tst, "V", 1e-5, next.VoltV, sol.Volt(20))
	chk.Float64(tst, "T", 1e-12, next.TempK, 300.0)
	chk.Float64(tst, "hyst", 1e-12, next.Hyst, 0.0)

	// the input state is caller-owned and must be left alone
	chk.Float64(tst, "input soc", 1e-17, state.Soc, 1.0)
	chk.Float64(tst, "input eta1", 1e-17, state.EtaJ[0], 0.0)
	chk.Float64(tst, "input voltage", 1e-17, state.VoltV, 0.0)
}

func Test_pred02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pred02. chained steps follow the trajectory")

	cell := rcCell(tst)
	if cell == nil {
		return
	}
	cf := dae.NewConfig()
	cf.Atol = 1e-10
	cf.Rtol = 1e-8
	prd, err := NewPrediction(cell, cf)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	sol := ana.ConstCurrent{
		I: 37.5, Cap: 75.0, Soc0: 1.0,
		A: 3.0, B: 1.2,
		R0: 0.01, R1: 0.004, C1: 5000.0,
	}

	// four 10 s predictions, handing each output to the next input
	state := &TransientState{Soc: 1.0, TempK: 300.0, Hyst: 0.0, EtaJ: []float64{0.0}}
	for i := 0; i < 4; i++ {
		state, err = prd.TakeStep(state, Constant(37.5), 10.0)
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		t := 10.0 * float64(i+1)
		chk.Float64(tst, "soc", 1e-9, state.Soc, sol.Soc(t))
		chk.Float64(tst, "eta1", 1e-5, state.EtaJ[0], sol.Eta(t))
		chk.Float64(tst, "V", 1e-5, state.VoltV, sol.Volt(t))
	}
}

func Test_pred03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pred03. prediction input validation")

	cell := rcCell(tst)
	if cell == nil {
		return
	}
	prd, err := NewPrediction(cell, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// RC overpotential count must match the cell
	state := &TransientState{Soc: 0.5, TempK: 300.0, EtaJ: []float64{0, 0}}
	if _, err = prd.TakeStep(state, Constant(1), 1.0); err == nil {
		tst.Errorf("test failed: TakeStep should have failed with mismatched EtaJ\n")
		return
	}

	// load function and positive time step are required
	state = &TransientState{Soc: 0.5, TempK: 300.0, EtaJ: []float64{0}}
	if _, err = prd.TakeStep(state, nil, 1.0); err == nil {
		tst.Errorf("test failed: TakeStep should have failed with nil load\n")
		return
	}
	if _, err = prd.TakeStep(state, Constant(1), 0.0); err == nil {
		tst.Errorf("test failed: TakeStep should have failed with dt=0\n")
		return
	}
}
