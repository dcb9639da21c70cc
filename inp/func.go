// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/ROVI-org/thevenin/mdl"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// FuncData holds one functional parameter definition
type FuncData struct {
	Name string     `json:"name" yaml:"name"` // name of function. ex: ocv, r0, myfunction1, etc.
	Type string     `json:"type" yaml:"type"` // type of function. ex: cte, lin, poly, table, arrhenius
	Prms utl.Params `json:"prms" yaml:"prms"` // parameters
}

// FuncsData holds the functional parameter database
type FuncsData []*FuncData

// Get allocates and initializes the function named name
func (o FuncsData) Get(name string) (fcn mdl.Func, err error) {
	for _, f := range o {
		if f.Name == name {
			fcn, err = mdl.New(f.Type)
			if err != nil {
				return nil, chk.Err("cannot get function named %q because of the following error:\n%v", name, err)
			}
			err = fcn.Init(f.Prms)
			if err != nil {
				return nil, chk.Err("cannot initialize function named %q because of the following error:\n%v", name, err)
			}
			return
		}
	}
	return nil, chk.Err("cannot find function named %q", name)
}

// auxiliary //////////////////////////////////////////////////////////////////////////////////////////

// String prints one function
func (o FuncData) String() string {
	l := io.Sf("    {\"name\":%q, \"type\":%q, \"prms\":[", o.Name, o.Type)
	for i, p := range o.Prms {
		if i > 0 {
			l += ", "
		}
		l += io.Sf("{\"n\":%q, \"v\":%g}", p.N, p.V)
	}
	return l + "]}"
}

// String prints functions
func (o FuncsData) String() string {
	if len(o) == 0 {
		return "  \"functions\" : []"
	}
	l := "  \"functions\" : [\n"
	for i, f := range o {
		if i > 0 {
			l += ",\n"
		}
		l += io.Sf("%v", f)
	}
	l += "\n  ]"
	return l
}
