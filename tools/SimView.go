// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// +build ignore

// SimView prints the contents of a simulation (.sim) file: the functional
// parameter database, the cell parameter set, and the experimental steps.
// It also tabulates each function over a soc grid for a quick sanity check.
package main

import (
	"github.com/ROVI-org/thevenin/inp"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	// input arguments
	simfn := io.ArgToFilename(0, "data/cycle01", ".json", true)
	npts := io.ArgToInt(1, 5)
	temp := io.ArgToFloat(2, 298.15)
	io.Pf("\n%s\n", io.ArgsTable("INPUT ARGUMENTS",
		"simulation filename", "simfn", simfn,
		"number of soc samples", "npts", npts,
		"temperature for function table", "temp", temp,
	))

	// simulation file
	sf, err := inp.ReadSim(simfn)
	if err != nil {
		chk.Panic("cannot read simulation file:\n%v", err)
	}
	io.PfYel("%s: %s\n\n", sf.Key, sf.Data.Desc)
	io.Pf("%v\n\n", sf.Functions)

	// function values over the soc grid
	io.Pf("functions over soc in [0, 1] @ T = %g K\n", temp)
	for _, fd := range sf.Functions {
		fcn, err := sf.Functions.Get(fd.Name)
		if err != nil {
			chk.Panic("cannot build function:\n%v", err)
		}
		vals := make([]float64, npts)
		for i, soc := range utl.LinSpace(0, 1, npts) {
			vals[i] = fcn.F(soc, temp)
		}
		io.Pf("  %-8s: %.6g\n", fd.Name, vals)
	}

	// experimental steps
	exp, err := sf.Experiment()
	if err != nil {
		chk.Panic("cannot build experiment:\n%v", err)
	}
	exp.PrintSteps()
}
