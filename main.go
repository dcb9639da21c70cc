// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/ROVI-org/thevenin/inp"
	"github.com/ROVI-org/thevenin/out"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("\nERROR: %v\n", err)
			io.Pf("See location of error below:\n")
			chk.Verbose = true
			for i := 5; i > 3; i-- {
				chk.CallerInfo(i)
			}
		}
	}()

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".json", true)
	verbose := io.ArgToBool(1, true)
	tShift := io.ArgToFloat(2, 1e-3)
	plotKey := io.ArgToString(3, "voltage_V")

	// message
	if verbose {
		io.PfWhite("\nThevenin -- Equivalent-Circuit Cell Simulator\n")
		io.Pf("Copyright 2024 The Thevenin Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n")

		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
			"time shift between steps", "tShift", tShift,
			"variable to plot vs time", "plotKey", plotKey,
		))
	}

	// read simulation file
	sf, err := inp.ReadSim(fnamepath)
	if err != nil {
		chk.Panic("cannot read simulation file:\n%v", err)
	}
	if verbose && sf.Data.Desc != "" {
		io.Pf("\n%s\n", sf.Data.Desc)
	}

	// build cell and experiment
	sml, err := sf.Simulation()
	if err != nil {
		chk.Panic("cannot build simulation:\n%v", err)
	}
	exp, err := sf.Experiment()
	if err != nil {
		chk.Panic("cannot build experiment:\n%v", err)
	}

	// run
	cyc, err := sml.Run(exp, true, tShift)
	if err != nil {
		chk.Panic("run failed:\n%v", err)
	}

	// summary
	if verbose {
		io.Pf("\n%v\n", io.ArgsTable("RESULTS",
			"number of steps", "nsteps", cyc.Nsolns(),
			"residual evaluations", "nfev", cyc.Nfev,
			"jacobian evaluations", "njev", cyc.Njev,
			"solver time [s]", "solvetime", io.Sf("%.6f", cyc.Solvetime),
		))
		for i, msg := range cyc.Message {
			io.Pf("step %2d: %s\n", i, msg)
		}
	}

	// plot
	err = out.Plot(cyc, sf.DirOut, sf.Key+"-"+plotKey, "time_s", plotKey)
	if err != nil {
		chk.Panic("cannot plot results:\n%v", err)
	}
	if verbose {
		io.Pf("\nfile <%s/%s-%s.html> written\n", sf.DirOut, sf.Key, plotKey)
	}
}
