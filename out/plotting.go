// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Plotter is any solved result able to export named variable arrays
type Plotter interface {
	Var(key string) ([]float64, error)
	Keys() []string
}

// Plot renders the ykeys variables against the xkey variable into an HTML
// chart @ dirout/fnkey.html
func Plot(sol Plotter, dirout, fnkey, xkey string, ykeys ...string) (err error) {

	if len(ykeys) == 0 {
		return chk.Err("at least one y variable is required")
	}
	xvals, err := sol.Var(xkey)
	if err != nil {
		return
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:     types.ThemeWesteros,
			PageTitle: fnkey,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: axisLabel(ykeys[0]),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        axisLabel(xkey),
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)
	line.SetXAxis(xvals)

	for _, key := range ykeys {
		yvals, e := sol.Var(key)
		if e != nil {
			return e
		}
		items := make([]opts.LineData, len(yvals))
		for i, v := range yvals {
			items[i] = opts.LineData{Value: v}
		}
		line.AddSeries(axisLabel(key), items)
	}

	err = os.MkdirAll(dirout, 0777)
	if err != nil {
		return chk.Err("cannot create output directory:\n%v", err)
	}
	f, err := os.Create(filepath.Join(dirout, fnkey+".html"))
	if err != nil {
		return chk.Err("cannot create chart file:\n%v", err)
	}
	defer f.Close()
	return line.Render(f)
}

// axisLabel converts a variable key such as "voltage_V" into "voltage [V]"
func axisLabel(key string) string {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return key
	}
	return io.Sf("%s [%s]", key[:i], key[i+1:])
}
