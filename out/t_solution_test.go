// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"testing"

	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
)

// onePairCell returns an initialized single-branch cell
func onePairCell(tst *testing.T) *mdl.Cell {
	cell := &mdl.Cell{
		Nrc:        1,
		Soc0:       1.0,
		Capacity:   50.0,
		Ce:         1.0,
		Gamma:      0.0,
		Mass:       1.5,
		Isothermal: true,
		Cp:         745.0,
		Tinf:       300.0,
		OCV:        mdl.Fn(func(soc, T float64) float64 { return 3.0 + soc }),
		Mhyst:      mdl.Fn(func(soc, T float64) float64 { return 0.05 }),
		R0:         mdl.Fn(func(soc, T float64) float64 { return 0.02 }),
		R:          []mdl.Func{mdl.Fn(func(soc, T float64) float64 { return 0.01 })},
		C:          []mdl.Func{mdl.Fn(func(soc, T float64) float64 { return 1e4 })},
	}
	err := cell.Init()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return nil
	}
	return cell
}

// fakeResult builds a solved result with rows [soc, hyst, eta1, T, I]
func fakeResult(t []float64, rows [][]float64) *dae.Result {
	res := &dae.Result{Success: true, Status: dae.StatusSuccess, Message: "ok"}
	res.T = t
	res.Y = rows
	res.Yp = make([][]float64, len(rows))
	for i := range rows {
		res.Yp[i] = make([]float64, len(rows[i]))
	}
	return res
}

func Test_soln01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("soln01. variable extraction")

	cell := onePairCell(tst)
	if cell == nil {
		return
	}
	res := fakeResult(
		[]float64{0, 30, 60},
		[][]float64{
			{1.00, 0, 0.000, 300, 0},
			{0.95, 0, 0.010, 300, 10},
			{0.90, 0, 0.015, 300, 10},
		},
	)
	soln := NewStepSolution(cell, res, 0.001)

	chk.Int(tst, "num RC", soln.NumRC(), 1)

	soc, err := soln.Var("soc")
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Array(tst, "soc", 1e-15, soc, []float64{1.0, 0.95, 0.9})

	tm, _ := soln.Var("time_min")
	chk.Array(tst, "time_min", 1e-15, tm, []float64{0, 0.5, 1})

	// V = OCV(soc) + h - eta1 - I*R0
	volt, _ := soln.Var("voltage_V")
	chk.Array(tst, "voltage", 1e-14, volt, []float64{4.0, 3.95 - 0.01 - 0.2, 3.9 - 0.015 - 0.2})

	crate, _ := soln.Var("current_C")
	chk.Array(tst, "current_C", 1e-15, crate, []float64{0, 0.2, 0.2})

	eta0, _ := soln.Var("eta0_V")
	chk.Array(tst, "eta0_V", 1e-15, eta0, []float64{0, 0.2, 0.2})

	eta1, _ := soln.Var("eta1_V")
	chk.Array(tst, "eta1_V", 1e-15, eta1, []float64{0, 0.01, 0.015})

	_, err = soln.Var("impedance_Ohm")
	if err == nil {
		tst.Errorf("test failed: Var should have failed with unknown name\n")
		return
	}

	// final state
	y, yp := soln.FinalState()
	chk.Array(tst, "final y", 1e-15, y, []float64{0.9, 0, 0.015, 300, 10})
	chk.Array(tst, "final yp", 1e-17, yp, make([]float64, 5))
}

func Test_soln02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("soln02. stitching keeps time strictly increasing")

	cell := onePairCell(tst)
	if cell == nil {
		return
	}
	s1 := NewStepSolution(cell, fakeResult(
		[]float64{0, 60},
		[][]float64{
			{1.00, 0, 0, 300, 0},
			{0.95, 0, 0, 300, 10},
		},
	), 0.001)
	s2 := NewStepSolution(cell, fakeResult(
		[]float64{0, 120},
		[][]float64{
			{0.95, 0, 0, 300, 10},
			{0.85, 0, 0, 300, 10},
		},
	), 0.002)

	cyc, err := NewCycleSolution([]*StepSolution{s1, s2}, 1e-3)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Int(tst, "nsolns", cyc.Nsolns(), 2)
	chk.Array(tst, "t", 1e-12, cyc.T, []float64{0, 60, 60.001, 180.001})
	for i := 1; i < len(cyc.T); i++ {
		if cyc.T[i] <= cyc.T[i-1] {
			tst.Errorf("test failed: stitched time is not strictly increasing\n")
			return
		}
	}

	// concatenated variables follow the stitched time line
	soc, _ := cyc.Var("soc")
	chk.Array(tst, "soc", 1e-15, soc, []float64{1.0, 0.95, 0.95, 0.85})
	ts, _ := cyc.Var("time_s")
	chk.Array(tst, "time_s", 1e-12, ts, cyc.T)

	// statistics accumulate
	chk.Float64(tst, "solvetime", 1e-15, cyc.Solvetime, 0.003)

	// zero and negative shifts are rejected
	_, err = NewCycleSolution([]*StepSolution{s1, s2}, 0)
	if err == nil {
		tst.Errorf("test failed: NewCycleSolution should have failed with zero shift\n")
		return
	}

	// empty input is rejected
	_, err = NewCycleSolution(nil, 1e-3)
	if err == nil {
		tst.Errorf("test failed: NewCycleSolution should have failed with no steps\n")
	}
}

func Test_soln03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("soln03. step extraction roundtrip")

	cell := onePairCell(tst)
	if cell == nil {
		return
	}
	solns := make([]*StepSolution, 3)
	for k := 0; k < 3; k++ {
		soc := 1.0 - 0.1*float64(k)
		solns[k] = NewStepSolution(cell, fakeResult(
			[]float64{0, 60},
			[][]float64{
				{soc, 0, 0, 300, 5},
				{soc - 0.05, 0, 0, 300, 5},
			},
		), 0.001)
	}
	cyc, err := NewCycleSolution(solns, 1e-3)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// single step comes back with relative time
	s, err := cyc.GetStep(1)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Array(tst, "step t", 1e-15, s.T, []float64{0, 60})
	soc, _ := s.Var("soc")
	chk.Array(tst, "step soc", 1e-15, soc, []float64{0.9, 0.85})

	// mutating the copy must not touch the cycle
	s.T[0] = -1
	s2, _ := cyc.GetStep(1)
	chk.Float64(tst, "cycle unchanged", 1e-17, s2.T[0], 0)

	// sub-cycle
	sub, err := cyc.GetSteps(1, 2)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Int(tst, "sub nsolns", sub.Nsolns(), 2)
	soc, _ = sub.Var("soc")
	chk.Array(tst, "sub soc", 1e-15, soc, []float64{0.9, 0.85, 0.8, 0.75})

	// out-of-range requests fail
	if _, err = cyc.GetStep(3); err == nil {
		tst.Errorf("test failed: GetStep should have failed out of range\n")
		return
	}
	if _, err = cyc.GetSteps(2, 1); err == nil {
		tst.Errorf("test failed: GetSteps should have failed with reversed range\n")
	}
}

func Test_soln04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("soln04. append compatibility checks")

	cell := onePairCell(tst)
	if cell == nil {
		return
	}
	s1 := NewStepSolution(cell, fakeResult(
		[]float64{0, 60},
		[][]float64{
			{1.0, 0, 0, 300, 0},
			{0.9, 0, 0, 300, 10},
		},
	), 0.001)
	cyc, err := NewCycleSolution([]*StepSolution{s1}, 1e-3)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// a cell with a different number of RC pairs is incompatible
	other := onePairCell(tst)
	other.Nrc = 2
	other.R = append(other.R, mdl.Fn(func(soc, T float64) float64 { return 0.01 }))
	other.C = append(other.C, mdl.Fn(func(soc, T float64) float64 { return 1e4 }))
	err = other.Init()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	s2 := NewStepSolution(other, fakeResult(
		[]float64{0, 60},
		[][]float64{
			{0.9, 0, 0, 0, 300, 10},
			{0.8, 0, 0, 0, 300, 10},
		},
	), 0.001)
	err = cyc.AppendStep(s2)
	if err == nil {
		tst.Errorf("test failed: AppendStep should have failed with incompatible cells\n")
		return
	}

	// compatible append extends the time line
	s3, _ := cyc.GetStep(0)
	err = cyc.AppendStep(s3)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Int(tst, "nsolns", cyc.Nsolns(), 2)
	chk.Float64(tst, "final time", 1e-12, cyc.T[len(cyc.T)-1], 120.001)
}

func Test_soln05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("soln05. rejected append leaves the cycle untouched")

	cell := onePairCell(tst)
	if cell == nil {
		return
	}
	s1 := NewStepSolution(cell, fakeResult(
		[]float64{0, 60},
		[][]float64{
			{1.0, 0, 0, 300, 0},
			{0.9, 0, 0, 300, 10},
		},
	), 0.001)
	cyc, err := NewCycleSolution([]*StepSolution{s1}, 1e-3)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	nT := len(cyc.T)
	nfev := cyc.Nfev
	solvetime := cyc.Solvetime

	// a step whose own time samples are not strictly increasing must be
	// rejected without committing any of its samples or statistics
	bad := NewStepSolution(cell, fakeResult(
		[]float64{0, 30, 30},
		[][]float64{
			{0.9, 0, 0, 300, 10},
			{0.85, 0, 0, 300, 10},
			{0.85, 0, 0, 300, 10},
		},
	), 0.002)
	err = cyc.AppendStep(bad)
	if err == nil {
		tst.Errorf("test failed: AppendStep should have failed with repeated time samples\n")
		return
	}
	chk.Int(tst, "nsolns", cyc.Nsolns(), 1)
	chk.Int(tst, "time samples", len(cyc.T), nT)
	chk.Int(tst, "nfev", cyc.Nfev, nfev)
	chk.Float64(tst, "solvetime", 1e-17, cyc.Solvetime, solvetime)
	chk.Float64(tst, "final time", 1e-12, cyc.T[len(cyc.T)-1], 60.0)

	// a well-formed step still appends after the rejection
	good, _ := cyc.GetStep(0)
	err = cyc.AppendStep(good)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Int(tst, "nsolns after append", cyc.Nsolns(), 2)
}
