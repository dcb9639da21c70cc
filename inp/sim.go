// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON or YAML file
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ROVI-org/thevenin/dae"
	"github.com/ROVI-org/thevenin/load"
	"github.com/ROVI-org/thevenin/sim"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"gopkg.in/yaml.v3"
)

// Data holds global data for simulations
type Data struct {
	Desc   string `json:"desc" yaml:"desc"`     // description of simulation
	DirOut string `json:"dirout" yaml:"dirout"` // directory for output; e.g. /tmp/thevenin
}

// SolverData holds DAE solver data
type SolverData struct {
	Atol    float64 `json:"atol" yaml:"atol"`       // absolute tolerance
	Rtol    float64 `json:"rtol" yaml:"rtol"`       // relative tolerance
	NmaxIt  int     `json:"nmaxit" yaml:"nmaxit"`   // number of max Newton iterations
	NmaxSS  int     `json:"nmaxss" yaml:"nmaxss"`   // max number of substeps
	DtMax   float64 `json:"dtmax" yaml:"dtmax"`     // max substep size
	DtMin   float64 `json:"dtmin" yaml:"dtmin"`     // min substep size
	DvgCtrl int     `json:"dvgctrl" yaml:"dvgctrl"` // divergence control: 1 on, -1 off, 0 default
	NdvgMax int     `json:"ndvgmax" yaml:"ndvgmax"` // max number of continued divergence
	LinSol  string  `json:"linsol" yaml:"linsol"`   // "dense" or "sparse"
}

// Config converts the solver data into solver options, leaving zero-valued
// fields to be filled by defaults
func (o *SolverData) Config() *dae.Config {
	if o == nil {
		return nil
	}
	return &dae.Config{
		Atol:    o.Atol,
		Rtol:    o.Rtol,
		NmaxIt:  o.NmaxIt,
		NmaxSS:  o.NmaxSS,
		DtMax:   o.DtMax,
		DtMin:   o.DtMin,
		DvgCtrl: o.DvgCtrl,
		NdvgMax: o.NdvgMax,
		LinSol:  o.LinSol,
	}
}

// LimitData holds one stopping criterion
type LimitData struct {
	Name  string  `json:"name" yaml:"name"`   // observable name; e.g. "voltage_V"
	Value float64 `json:"value" yaml:"value"` // threshold in observable units
}

// LoadData holds a time-varying load profile definition
type LoadData struct {
	Type      string    `json:"type" yaml:"type"`           // "ramp", "ramp2const", "steps", "rampedsteps"
	M         float64   `json:"m" yaml:"m"`                 // slope [units/s]
	B         float64   `json:"b" yaml:"b"`                 // intercept [units]
	Step      float64   `json:"step" yaml:"step"`           // constant step value [units]
	Sharpness float64   `json:"sharpness" yaml:"sharpness"` // ramp-to-step transition sharpness
	Tp        []float64 `json:"tp" yaml:"tp"`               // transition times [s]
	Yp        []float64 `json:"yp" yaml:"yp"`               // values per interval
	TRamp     float64   `json:"tramp" yaml:"tramp"`         // ramping time between transitions [s]
	Y0        float64   `json:"y0" yaml:"y0"`               // value before the first transition
}

// Fn builds the load profile
func (o *LoadData) Fn() (fn load.Fn, err error) {
	switch o.Type {
	case "ramp":
		return load.Ramp(o.M, o.B), nil
	case "ramp2const":
		sharpness := o.Sharpness
		if sharpness == 0 {
			sharpness = 100
		}
		return load.Ramp2Const(o.M, o.Step, o.B, sharpness)
	case "steps":
		return load.Steps(o.Tp, o.Yp, o.Y0)
	case "rampedsteps":
		return load.RampedSteps(o.Tp, o.Yp, o.TRamp, o.Y0)
	}
	return nil, chk.Err("load profile type %q is invalid; options are \"ramp\", \"ramp2const\", \"steps\", and \"rampedsteps\"", o.Type)
}

// StepData holds one experimental step definition. The solution times come
// either from (tf, nt) for equally spaced samples or from (tf, dt) for a
// fixed sample interval.
type StepData struct {
	Mode   string       `json:"mode" yaml:"mode"`     // control mode; e.g. "current_A"
	Value  float64      `json:"value" yaml:"value"`   // constant load value; ignored when load is set
	Load   *LoadData    `json:"load" yaml:"load"`     // time-varying load; overrides value
	Tf     float64      `json:"tf" yaml:"tf"`         // final relative step time [s]
	Nt     int          `json:"nt" yaml:"nt"`         // number of equally spaced samples
	Dt     float64      `json:"dt" yaml:"dt"`         // sample interval [s]; used when nt == 0
	Limits []*LimitData `json:"limits" yaml:"limits"` // stopping criteria
	Solver *SolverData  `json:"solver" yaml:"solver"` // per-step solver overrides
}

// Simfile holds all simulation data
type Simfile struct {

	// input
	Data      Data        `json:"data" yaml:"data"`           // global simulation data
	Functions FuncsData   `json:"functions" yaml:"functions"` // functional parameter database
	Cell      CellData    `json:"cell" yaml:"cell"`           // cell parameter set
	Solver    SolverData  `json:"solver" yaml:"solver"`       // experiment-wide solver options
	Steps     []*StepData `json:"steps" yaml:"steps"`         // experimental steps, in order

	// derived
	DirOut string // directory to save results
	Key    string // simulation key; e.g. mysim01.sim.json => mysim01
}

// ReadSim reads all simulation data from a .json or .yaml file
func ReadSim(simfilepath string) (o *Simfile, err error) {

	// read file
	b, err := os.ReadFile(simfilepath)
	if err != nil {
		return nil, chk.Err("cannot read simulation file %q:\n%v", simfilepath, err)
	}

	// decode
	o = new(Simfile)
	switch strings.ToLower(filepath.Ext(simfilepath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, o)
	default:
		err = json.Unmarshal(b, o)
	}
	if err != nil {
		return nil, chk.Err("cannot unmarshal simulation file %q:\n%v", simfilepath, err)
	}

	// filename key
	fn := filepath.Base(simfilepath)
	o.Key = strings.TrimSuffix(io.FnKey(fn), ".sim")

	// output directory
	o.DirOut = o.Data.DirOut
	if o.DirOut == "" {
		o.DirOut = filepath.Join(os.TempDir(), "thevenin", o.Key)
	}
	return
}

// Experiment builds the experiment from the step definitions, with the
// experiment-wide solver options as defaults
func (o *Simfile) Experiment() (exp *sim.Experiment, err error) {
	exp = sim.NewExperiment(dae.NewConfig().Merge(o.Solver.Config()))
	for i, sd := range o.Steps {
		s := &sim.Step{Mode: sd.Mode, Value: sd.Value, Opts: sd.Solver.Config()}
		if sd.Load != nil {
			fn, e := sd.Load.Fn()
			if e != nil {
				return nil, chk.Err("cannot build load profile of step %d:\n%v", i, e)
			}
			s.Fcn = sim.LoadFn(fn)
		}
		if sd.Nt > 0 {
			s.Tspan = sim.Linspan(sd.Tf, sd.Nt)
		} else {
			s.Tspan = sim.Dtspan(sd.Tf, sd.Dt)
		}
		for _, l := range sd.Limits {
			s.Limits = append(s.Limits, sim.Limit{Name: l.Name, Value: l.Value})
		}
		err = exp.AddStep(s)
		if err != nil {
			return nil, chk.Err("step %d is invalid:\n%v", i, err)
		}
	}
	return
}

// Simulation builds the cell and places it @ the rested condition
func (o *Simfile) Simulation() (s *sim.Simulation, err error) {
	cell, err := o.Cell.Cell(o.Functions)
	if err != nil {
		return
	}
	return sim.NewSimulation(cell)
}
