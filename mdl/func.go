// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mdl implements the lumped-parameter equivalent-circuit cell model
package mdl

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// Func defines functional cell parameters; e.g. OCV(soc) or R0(soc,T).
// Functions that do not depend on temperature simply ignore T.
type Func interface {
	Init(prms utl.Params) error      // initialises this structure
	GetPrms(example bool) utl.Params // gets (an example) of parameters
	F(soc, T float64) float64        // evaluates function @ state-of-charge and temperature [K]
}

// New returns a new functional parameter
func New(name string) (fcn Func, err error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, chk.Err("function %q is not available in 'mdl' database", name)
	}
	return allocator(), nil
}

// allocators holds all available functions
var allocators = map[string]func() Func{}

// Fn wraps a raw Go closure as a Func. Convenient when building cells
// directly from code instead of input files.
type Fn func(soc, T float64) float64

func (o Fn) Init(prms utl.Params) error      { return nil }
func (o Fn) GetPrms(example bool) utl.Params { return nil }
func (o Fn) F(soc, T float64) float64        { return o(soc, T) }

// Cte implements a constant function: f(soc,T) := c
type Cte struct {
	c float64
}

// add function to factory
func init() {
	allocators["cte"] = func() Func { return new(Cte) }
}

// Init initialises function
func (o *Cte) Init(prms utl.Params) (err error) {
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "c":
			o.c = p.V
		default:
			return chk.Err("cte: parameter named %q is incorrect\n", p.N)
		}
	}
	return
}

// GetPrms gets (an example) of parameters
func (o Cte) GetPrms(example bool) utl.Params {
	return []*utl.P{
		{N: "c", V: 0.05},
	}
}

// F evaluates the function
func (o Cte) F(soc, T float64) float64 {
	return o.c
}

// Lin implements a function linear in soc: f(soc,T) := a + b*soc
type Lin struct {
	a float64 // intercept
	b float64 // slope w.r.t soc
}

// add function to factory
func init() {
	allocators["lin"] = func() Func { return new(Lin) }
}

// Init initialises function
func (o *Lin) Init(prms utl.Params) (err error) {
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "a":
			o.a = p.V
		case "b":
			o.b = p.V
		default:
			return chk.Err("lin: parameter named %q is incorrect\n", p.N)
		}
	}
	return
}

// GetPrms gets (an example) of parameters
func (o Lin) GetPrms(example bool) utl.Params {
	return []*utl.P{
		{N: "a", V: 3.5},
		{N: "b", V: 0.7},
	}
}

// F evaluates the function
func (o Lin) F(soc, T float64) float64 {
	return o.a + o.b*soc
}

// Poly implements a polynomial in soc: f(soc,T) := Σ ai*soc^i
// Parameters must be named "a0", "a1", "a2", ...
type Poly struct {
	a []float64 // coefficients; a[i] multiplies soc^i
}

// add function to factory
func init() {
	allocators["poly"] = func() Func { return new(Poly) }
}

// Init initialises function
func (o *Poly) Init(prms utl.Params) (err error) {
	coefs := make(map[int]float64)
	nmax := -1
	for _, p := range prms {
		name := strings.ToLower(p.N)
		if !strings.HasPrefix(name, "a") {
			return chk.Err("poly: parameter named %q is incorrect\n", p.N)
		}
		i, err := strconv.Atoi(name[1:])
		if err != nil || i < 0 {
			return chk.Err("poly: parameter named %q is incorrect\n", p.N)
		}
		coefs[i] = p.V
		if i > nmax {
			nmax = i
		}
	}
	if nmax < 0 {
		return chk.Err("poly: at least one coefficient (e.g. \"a0\") is required\n")
	}
	o.a = make([]float64, nmax+1)
	for i, v := range coefs {
		o.a[i] = v
	}
	return
}

// GetPrms gets (an example) of parameters
func (o Poly) GetPrms(example bool) utl.Params {
	return []*utl.P{
		{N: "a0", V: 3.0},
		{N: "a1", V: 1.2},
		{N: "a2", V: -0.5},
	}
}

// F evaluates the function using Horner's rule
func (o Poly) F(soc, T float64) float64 {
	res := 0.0
	for i := len(o.a) - 1; i >= 0; i-- {
		res = res*soc + o.a[i]
	}
	return res
}

// Table implements piecewise-linear interpolation over soc.
// Parameters come in pairs "s0"/"f0", "s1"/"f1", ... with the s-values
// strictly increasing. Evaluations outside [s0, sN] clamp to the ends.
type Table struct {
	s []float64 // soc sample points (strictly increasing)
	f []float64 // function values @ sample points
}

// add function to factory
func init() {
	allocators["table"] = func() Func { return new(Table) }
}

// Init initialises function
func (o *Table) Init(prms utl.Params) (err error) {
	ss := make(map[int]float64)
	ff := make(map[int]float64)
	for _, p := range prms {
		name := strings.ToLower(p.N)
		if len(name) < 2 {
			return chk.Err("table: parameter named %q is incorrect\n", p.N)
		}
		i, aerr := strconv.Atoi(name[1:])
		if aerr != nil || i < 0 {
			return chk.Err("table: parameter named %q is incorrect\n", p.N)
		}
		switch name[0] {
		case 's':
			ss[i] = p.V
		case 'f':
			ff[i] = p.V
		default:
			return chk.Err("table: parameter named %q is incorrect\n", p.N)
		}
	}
	if len(ss) != len(ff) {
		return chk.Err("table: number of \"s\" points (%d) must equal number of \"f\" points (%d)\n", len(ss), len(ff))
	}
	if len(ss) < 2 {
		return chk.Err("table: at least two points are required\n")
	}
	idx := make([]int, 0, len(ss))
	for i := range ss {
		if _, ok := ff[i]; !ok {
			return chk.Err("table: point \"f%d\" is missing\n", i)
		}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	o.s = make([]float64, len(idx))
	o.f = make([]float64, len(idx))
	for k, i := range idx {
		o.s[k] = ss[i]
		o.f[k] = ff[i]
	}
	for k := 1; k < len(o.s); k++ {
		if o.s[k] <= o.s[k-1] {
			return chk.Err("table: \"s\" points must be strictly increasing\n")
		}
	}
	return
}

// GetPrms gets (an example) of parameters
func (o Table) GetPrms(example bool) utl.Params {
	return []*utl.P{
		{N: "s0", V: 0.0}, {N: "f0", V: 3.0},
		{N: "s1", V: 0.5}, {N: "f1", V: 3.6},
		{N: "s2", V: 1.0}, {N: "f2", V: 4.2},
	}
}

// F evaluates the function
func (o Table) F(soc, T float64) float64 {
	n := len(o.s)
	if soc <= o.s[0] {
		return o.f[0]
	}
	if soc >= o.s[n-1] {
		return o.f[n-1]
	}
	k := sort.SearchFloat64s(o.s, soc)
	if o.s[k] == soc {
		return o.f[k]
	}
	w := (soc - o.s[k-1]) / (o.s[k] - o.s[k-1])
	return o.f[k-1] + w*(o.f[k]-o.f[k-1])
}

// Arrhenius implements a temperature-activated value:
// f(soc,T) := v * exp( (ea/Rgas) * (1/tref - 1/T) )
type Arrhenius struct {
	v    float64 // reference value @ tref
	ea   float64 // activation energy [J/mol]
	tref float64 // reference temperature [K]
}

// Rgas is the universal gas constant [J/mol/K]
const Rgas = 8.31446261815324

// add function to factory
func init() {
	allocators["arrhenius"] = func() Func { return new(Arrhenius) }
}

// Init initialises function
func (o *Arrhenius) Init(prms utl.Params) (err error) {
	o.tref = 298.15
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "v":
			o.v = p.V
		case "ea":
			o.ea = p.V
		case "tref":
			o.tref = p.V
		default:
			return chk.Err("arrhenius: parameter named %q is incorrect\n", p.N)
		}
	}
	if o.tref <= 0 {
		return chk.Err("arrhenius: \"tref\" must be positive\n")
	}
	return
}

// GetPrms gets (an example) of parameters
func (o Arrhenius) GetPrms(example bool) utl.Params {
	return []*utl.P{
		{N: "v", V: 0.05},
		{N: "ea", V: 20e3},
		{N: "tref", V: 298.15},
	}
}

// F evaluates the function
func (o Arrhenius) F(soc, T float64) float64 {
	return o.v * math.Exp(o.ea/Rgas*(1.0/o.tref-1.0/T))
}
