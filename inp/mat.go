// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
)

// CellData holds the cell parameter set as read from a simulation file.
// Functional parameters are given by name and resolved against the
// functions database.
type CellData struct {
	Nrc        int     `json:"nrc" yaml:"nrc"`               // number of RC pairs
	Soc0       float64 `json:"soc0" yaml:"soc0"`             // initial state of charge [-]
	Capacity   float64 `json:"capacity" yaml:"capacity"`     // maximum capacity [Ah]
	Ce         float64 `json:"ce" yaml:"ce"`                 // coulombic efficiency [-]
	Gamma      float64 `json:"gamma" yaml:"gamma"`           // hysteresis approach rate [-]
	Mass       float64 `json:"mass" yaml:"mass"`             // total cell mass [kg]
	Isothermal bool    `json:"isothermal" yaml:"isothermal"` // clamp temperature @ tinf
	Cp         float64 `json:"cp" yaml:"cp"`                 // specific heat capacity [J/kg/K]
	Tinf       float64 `json:"tinf" yaml:"tinf"`             // ambient temperature [K]
	Htherm     float64 `json:"htherm" yaml:"htherm"`         // convective coefficient [W/m2/K]
	Atherm     float64 `json:"atherm" yaml:"atherm"`         // heat-loss area [m2]

	// functional parameters (names within the functions database)
	OCV   string   `json:"ocv" yaml:"ocv"`     // open-circuit voltage [V]
	Mhyst string   `json:"mhyst" yaml:"mhyst"` // maximum hysteresis magnitude [V]
	R0    string   `json:"r0" yaml:"r0"`       // series resistance [Ohm]
	R     []string `json:"r" yaml:"r"`         // RC-branch resistances [Ohm]
	C     []string `json:"c" yaml:"c"`         // RC-branch capacitances [F]
}

// Cell builds and initializes the cell model, resolving the functional
// parameters against functions
func (o *CellData) Cell(functions FuncsData) (cell *mdl.Cell, err error) {

	cell = &mdl.Cell{
		Nrc:        o.Nrc,
		Soc0:       o.Soc0,
		Capacity:   o.Capacity,
		Ce:         o.Ce,
		Gamma:      o.Gamma,
		Mass:       o.Mass,
		Isothermal: o.Isothermal,
		Cp:         o.Cp,
		Tinf:       o.Tinf,
		Htherm:     o.Htherm,
		Atherm:     o.Atherm,
	}

	cell.OCV, err = functions.Get(o.OCV)
	if err != nil {
		return nil, chk.Err("cannot resolve ocv function:\n%v", err)
	}
	cell.Mhyst, err = functions.Get(o.Mhyst)
	if err != nil {
		return nil, chk.Err("cannot resolve mhyst function:\n%v", err)
	}
	cell.R0, err = functions.Get(o.R0)
	if err != nil {
		return nil, chk.Err("cannot resolve r0 function:\n%v", err)
	}
	if len(o.R) != o.Nrc || len(o.C) != o.Nrc {
		return nil, chk.Err("need exactly %d r and c function names to match nrc. len(r)=%d and len(c)=%d are invalid", o.Nrc, len(o.R), len(o.C))
	}
	cell.R = make([]mdl.Func, o.Nrc)
	cell.C = make([]mdl.Func, o.Nrc)
	for j := 0; j < o.Nrc; j++ {
		cell.R[j], err = functions.Get(o.R[j])
		if err != nil {
			return nil, chk.Err("cannot resolve r%d function:\n%v", j+1, err)
		}
		cell.C[j], err = functions.Get(o.C[j])
		if err != nil {
			return nil, chk.Err("cannot resolve c%d function:\n%v", j+1, err)
		}
	}

	err = cell.Init()
	if err != nil {
		return nil, err
	}
	return
}
