// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sim implements the experiment protocol and the step executor that
// drives the DAE solver across sequential load steps
package sim

import (
	"math"

	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// LoadFn is a time-dependent load value; t is the relative step time [s]
type LoadFn func(t float64) float64

// Limit is one stopping criterion: the step terminates when the named
// observable crosses Value
type Limit struct {
	Name  string  // observable name; e.g. "voltage_V"
	Value float64 // threshold in observable units
}

// Step defines one experimental step
type Step struct {
	Mode   string      // control mode; e.g. "current_A"
	Value  float64     // constant load value; ignored when Fcn is set
	Fcn    LoadFn      // time-dependent load; overrides Value when non-nil
	Tspan  []float64   // relative solution times [s]; starts @ zero, strictly increasing
	Limits []Limit     // optional stopping criteria
	Opts   *dae.Config // per-step solver overrides; may be nil
}

// Experiment holds an ordered sequence of steps plus experiment-wide solver
// defaults. Steps can only be added, never removed or reordered.
type Experiment struct {
	Defaults *dae.Config // solver options spanning all steps
	steps    []*Step
}

// NewExperiment returns a new empty experiment. A nil config selects the
// solver defaults.
func NewExperiment(defaults *dae.Config) (o *Experiment) {
	o = new(Experiment)
	if defaults == nil {
		defaults = dae.NewConfig()
	}
	o.Defaults = defaults
	return
}

// Nsteps returns the number of steps
func (o *Experiment) Nsteps() int {
	return len(o.steps)
}

// Step returns the step @ index i
func (o *Experiment) Step(i int) *Step {
	return o.steps[i]
}

// Opts returns the merged solver options for step i: experiment defaults
// overridden by the step's own options
func (o *Experiment) Opts(i int) *dae.Config {
	return o.Defaults.Merge(o.steps[i].Opts)
}

// AddStep validates and appends a step. Configuration errors surface here,
// never during integration.
func (o *Experiment) AddStep(s *Step) (err error) {

	// control mode
	switch s.Mode {
	case mdl.ModeCurrA, mdl.ModeCurrC, mdl.ModeVoltV, mdl.ModePowW:
	default:
		return chk.Err("control mode %q is invalid; valid modes are [%s %s %s %s]", s.Mode, mdl.ModeCurrA, mdl.ModeCurrC, mdl.ModeVoltV, mdl.ModePowW)
	}

	// time span
	if len(s.Tspan) < 2 {
		return chk.Err("tspan length must be at least two. len(tspan)=%d is invalid", len(s.Tspan))
	}
	if s.Tspan[0] != 0 {
		return chk.Err("tspan must start @ zero. tspan[0]=%g is invalid", s.Tspan[0])
	}
	for i := 1; i < len(s.Tspan); i++ {
		if s.Tspan[i] <= s.Tspan[i-1] {
			return chk.Err("tspan must be strictly increasing. tspan[%d]=%g and tspan[%d]=%g are invalid", i-1, s.Tspan[i-1], i, s.Tspan[i])
		}
	}

	// limits
	for _, l := range s.Limits {
		if utl.StrIndexSmall(mdl.ObsNames, l.Name) < 0 {
			return chk.Err("limit named %q is invalid; valid names are %v", l.Name, mdl.ObsNames)
		}
	}

	o.steps = append(o.steps, s)
	return
}

// PrintSteps prints a readable list of steps
func (o *Experiment) PrintSteps() {
	for i, s := range o.steps {
		io.Pf("\nstep %d\n", i)
		io.Pf("--------------------\n")
		io.Pf("mode   : %s\n", s.Mode)
		if s.Fcn != nil {
			io.Pf("value  : f(t)\n")
		} else {
			io.Pf("value  : %g\n", s.Value)
		}
		io.Pf("tspan  : [0, %g] (%d points)\n", s.Tspan[len(s.Tspan)-1], len(s.Tspan))
		for _, l := range s.Limits {
			io.Pf("limit  : %s = %g\n", l.Name, l.Value)
		}
	}
}

// Linspan returns nt equally spaced times within [0, tf]
func Linspan(tf float64, nt int) []float64 {
	if tf <= 0 || nt < 2 {
		return nil
	}
	return utl.LinSpace(0, tf, nt)
}

// Dtspan returns times within [0, tf] spaced by dt. The literal tf is kept
// as the final sample even when dt does not evenly divide it, in which case
// the last interval is shorter than dt.
func Dtspan(tf, dt float64) (tspan []float64) {
	if tf <= 0 || dt <= 0 {
		return nil
	}
	n := int(math.Ceil(tf/dt - 1e-12))
	tspan = make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		tspan = append(tspan, float64(i)*dt)
	}
	return append(tspan, tf)
}
