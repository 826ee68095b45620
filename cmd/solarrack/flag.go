package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/piwi3910/SolarRack/internal/model"
)

// dimensions is a "WxH" flag in cm, optionally suffixed with ",v" for
// vertical panels, e.g. "113x176,v".
type dimensions struct {
	model.CellDimensions
	set bool
}

func (d *dimensions) String() string {
	if d == nil || d.Width == 0 {
		return ""
	}
	return strconv.FormatFloat(d.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(d.Height, 'f', -1, 64)
}

func (d *dimensions) Set(value string) error {
	size, orient, _ := strings.Cut(value, ",")
	wh := strings.Split(strings.ToLower(size), "x")
	if len(wh) != 2 {
		return errors.New("need dimensions as WxH")
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(wh[0]), 64)
	if err != nil {
		return errors.New("can't get width")
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(wh[1]), 64)
	if err != nil {
		return errors.New("can't get height")
	}
	o, ok := model.ParseOrientation(strings.TrimSpace(orient))
	if !ok {
		return errors.Errorf("unknown orientation %q", orient)
	}
	d.CellDimensions = model.CellDimensions{Width: w, Height: h, Orientation: o}
	d.set = true
	return d.Validate()
}

// commands collects repeated -edit flags in order.
type commands []string

func (c *commands) String() string {
	if c == nil {
		return ""
	}
	return strings.Join(*c, "; ")
}

func (c *commands) Set(value string) error {
	for _, cmd := range strings.Split(value, ";") {
		if cmd = strings.TrimSpace(cmd); cmd != "" {
			*c = append(*c, cmd)
		}
	}
	return nil
}
