// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"testing"

	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
)

func Test_exp01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("exp01. time span helpers")

	chk.Array(tst, "linspan", 1e-15, Linspan(10, 5), []float64{0, 2.5, 5, 7.5, 10})

	// evenly dividing dt
	chk.Array(tst, "dtspan even", 1e-15, Dtspan(1.0, 0.25), []float64{0, 0.25, 0.5, 0.75, 1.0})

	// dt not dividing tf: the literal final time is kept
	ts := Dtspan(1.0, 0.3)
	chk.Array(tst, "dtspan uneven", 1e-15, ts, []float64{0, 0.3, 0.6, 0.9, 1.0})

	// degenerate arguments
	if Linspan(-1, 5) != nil || Linspan(1, 1) != nil || Dtspan(1, 0) != nil {
		tst.Errorf("test failed: degenerate arguments must yield nil\n")
	}
}

func Test_exp02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("exp02. step validation")

	exp := NewExperiment(nil)

	// valid step
	err := exp.AddStep(&Step{Mode: mdl.ModeCurrA, Value: 10, Tspan: Linspan(60, 7)})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Int(tst, "nsteps", exp.Nsteps(), 1)

	// invalid mode
	err = exp.AddStep(&Step{Mode: "resistance_Ohm", Tspan: Linspan(60, 7)})
	if err == nil {
		tst.Errorf("test failed: AddStep should have failed with invalid mode\n")
		return
	}

	// tspan not starting @ zero
	err = exp.AddStep(&Step{Mode: mdl.ModeCurrA, Tspan: []float64{1, 2, 3}})
	if err == nil {
		tst.Errorf("test failed: AddStep should have failed with tspan[0] != 0\n")
		return
	}

	// tspan too short
	err = exp.AddStep(&Step{Mode: mdl.ModeCurrA, Tspan: []float64{0}})
	if err == nil {
		tst.Errorf("test failed: AddStep should have failed with a single sample\n")
		return
	}

	// non-increasing tspan
	err = exp.AddStep(&Step{Mode: mdl.ModeCurrA, Tspan: []float64{0, 1, 1}})
	if err == nil {
		tst.Errorf("test failed: AddStep should have failed with repeated samples\n")
		return
	}

	// invalid limit name
	err = exp.AddStep(&Step{
		Mode:   mdl.ModeCurrA,
		Tspan:  Linspan(60, 7),
		Limits: []Limit{{Name: "impedance_Ohm", Value: 1}},
	})
	if err == nil {
		tst.Errorf("test failed: AddStep should have failed with invalid limit\n")
		return
	}

	// failed steps must not be appended
	chk.Int(tst, "nsteps after failures", exp.Nsteps(), 1)
}

func Test_exp03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("exp03. per-step solver overrides")

	defaults := dae.NewConfig()
	defaults.Atol = 1e-8
	exp := NewExperiment(defaults)

	err := exp.AddStep(&Step{Mode: mdl.ModeCurrA, Value: 1, Tspan: Linspan(10, 3)})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	err = exp.AddStep(&Step{
		Mode:  mdl.ModeVoltV,
		Value: 4.2,
		Tspan: Linspan(10, 3),
		Opts:  &dae.Config{Rtol: 1e-9, LinSol: "sparse"},
	})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// step 0 inherits the experiment defaults
	cf := exp.Opts(0)
	chk.Float64(tst, "step0 atol", 1e-17, cf.Atol, 1e-8)
	chk.Float64(tst, "step0 rtol", 1e-17, cf.Rtol, defaults.Rtol)

	// step 1 overrides rtol and the linear solver but keeps atol
	cf = exp.Opts(1)
	chk.Float64(tst, "step1 atol", 1e-17, cf.Atol, 1e-8)
	chk.Float64(tst, "step1 rtol", 1e-17, cf.Rtol, 1e-9)
	if cf.LinSol != "sparse" {
		tst.Errorf("test failed: LinSol override was lost\n")
	}
}
