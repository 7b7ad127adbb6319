package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/talgya/eig/internal/config"
	"github.com/talgya/eig/internal/engine"
	"github.com/talgya/eig/internal/fabric"
	"github.com/talgya/eig/internal/persistence"
)

// stageColors maps stages to their terminal color.
var stageColors = map[fabric.Stage]*color.Color{
	fabric.StageBusy:      color.New(color.FgWhite),
	fabric.StageGrowing:   color.New(color.FgYellow),
	fabric.StageShaping:   color.New(color.FgMagenta),
	fabric.StageSlack:     color.New(color.FgGreen),
	fabric.StageRealizing: color.New(color.FgCyan),
	fabric.StageRealized:  color.New(color.FgBlue, color.Bold),
}

var (
	headerColor   = color.New(color.Bold)
	overrideColor = color.New(color.FgYellow)
)

// swatch renders a two-cell block in c, or its hex code without color.
func swatch(c fabric.RGB) string {
	if color.NoColor {
		return c.Hex()
	}
	b := c.Bytes()
	return color.BgRGB(int(b[0]), int(b[1]), int(b[2])).Sprint("  ") + " " + c.Hex()
}

// formatValue renders counters with thousands separators and everything else
// in its shortest float32 form.
func formatValue(f fabric.FabricFeature, v float32) string {
	if f.Counter() {
		return humanize.Comma(int64(v))
	}
	return config.FormatValue(v)
}

func writeStages(w io.Writer) {
	headerColor.Fprintln(w, "Stages")
	for _, st := range fabric.Stages() {
		fmt.Fprintf(w, "  %d  %s\n", st.Tag(), stageColors[st].Sprint(st))
	}
}

func writeRoles(w io.Writer, features *fabric.Features) {
	headerColor.Fprintln(w, "\nInterval roles")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  tag\trole\tkind\trest length\tcolor")
	for _, role := range fabric.Roles() {
		kind := "pull"
		if role.Push() {
			kind = "push"
		}
		length := "(supplied)"
		if v, ok := features.RestLength(role); ok {
			length = config.FormatValue(v)
			if f, _ := role.LengthFeature(); features.Overridden(f) {
				length = overrideColor.Sprint(length + " *")
			}
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", role.Tag(), role, kind, length, swatch(fabric.RoleColor(role)))
	}
	tw.Flush()
}

func writeFeatures(w io.Writer, features *fabric.Features) {
	headerColor.Fprintln(w, "\nFabric features")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  tag\tfeature\tvalue\tdefault")
	for _, f := range fabric.AllFeatures() {
		value := formatValue(f, features.Get(f))
		if features.Overridden(f) {
			value = overrideColor.Sprint(value + " *")
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", f.Tag(), f, value, formatValue(f, f.Default()))
	}
	tw.Flush()

	fmt.Fprintf(w, "  growing spans %s frames, realizing spans %s frames\n",
		humanize.Comma(int64(engine.Frames(features, fabric.FeatureIntervalCountdown))),
		humanize.Comma(int64(engine.Frames(features, fabric.FeatureRealizingCountdown))))
}

func writePalette(w io.Writer) {
	headerColor.Fprintln(w, "\nPalette")
	fmt.Fprintf(w, "  attenuated %s\n", swatch(fabric.AttenuatedColor()))
	fmt.Fprintf(w, "  slack      %s\n", swatch(fabric.SlackColor()))
	fmt.Fprint(w, "  rainbow   ")
	for _, c := range fabric.Rainbow() {
		if color.NoColor {
			fmt.Fprintf(w, " %s", c.Hex())
			continue
		}
		b := c.Bytes()
		fmt.Fprint(w, color.BgRGB(int(b[0]), int(b[1]), int(b[2])).Sprint("  "))
	}
	fmt.Fprintln(w)
}

func writeTransition(w io.Writer, frame uint64, stage fabric.Stage, countdown uint32) {
	line := fmt.Sprintf("  frame %-7s %s", humanize.Comma(int64(frame)), stageColors[stage].Sprint(stage))
	if countdown > 0 {
		line += fmt.Sprintf(" (%s iterations)", humanize.Comma(int64(countdown)))
	}
	fmt.Fprintln(w, line)
}

func writeProfiles(w io.Writer, list []persistence.ProfileInfo, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no stored profiles")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\toverrides\tupdated\tdescription")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Name, p.Overrides, humanize.RelTime(p.UpdatedAt, now, "ago", "from now"), p.Description)
	}
	tw.Flush()
}
