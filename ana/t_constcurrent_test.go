// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ana

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_constcurrent01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("constcurrent01. 0.5C discharge with one RC pair")

	sol := ConstCurrent{
		I:    37.5,
		Cap:  75.0,
		Soc0: 1.0,
		A:    3.0,
		B:    1.2,
		R0:   0.01,
		R1:   0.004,
		C1:   5000.0,
	}

	// soc is linear in time: half a cycle in one hour
	chk.Float64(tst, "soc @ t=0", 1e-17, sol.Soc(0), 1.0)
	chk.Float64(tst, "soc @ t=3600", 1e-15, sol.Soc(3600), 0.5)

	// eta starts at zero and relaxes to I*R1 with tau = R1*C1 = 20 s
	chk.Float64(tst, "eta @ t=0", 1e-17, sol.Eta(0), 0.0)
	chk.Float64(tst, "eta @ t=tau", 1e-15, sol.Eta(20), 37.5*0.004*(1.0-math.Exp(-1.0)))
	chk.Float64(tst, "eta @ t>>tau", 1e-10, sol.Eta(600), 0.15)

	// V(0) = ocv(soc0) - I*R0
	chk.Float64(tst, "V @ t=0", 1e-15, sol.Volt(0), 4.2-0.375)

	// no RC branch
	sol.C1 = 0
	chk.Float64(tst, "eta without RC", 1e-17, sol.Eta(100), 0.0)
	chk.Float64(tst, "V without RC", 1e-15, sol.Volt(0), 4.2-0.375)
}
