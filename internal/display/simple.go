// Package display renders a trace's hop stream as terminal output.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/havenmarch/rtrace/pkg/hop"
)

var (
	addrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	rttStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))  // green
	timeoutStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")) // gray
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203")) // red
)

// SimpleRenderer writes one line per hop observation in traditional
// traceroute format. It consumes observations as they arrive, so output
// appears hop by hop rather than after the trace completes.
type SimpleRenderer struct {
	Out     io.Writer
	NoColor bool
}

// NewSimpleRenderer creates a renderer writing to out.
func NewSimpleRenderer(out io.Writer) *SimpleRenderer {
	return &SimpleRenderer{Out: out}
}

// FormatRTT formats a duration as milliseconds.
func (r *SimpleRenderer) FormatRTT(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	return fmt.Sprintf("%.2fms", ms)
}

// RenderObservation formats a single observation as a text line.
func (r *SimpleRenderer) RenderObservation(o hop.Observation) string {
	if o.Reason == hop.ReasonTransportFailure {
		return fmt.Sprintf("%2d  %s", o.HopCount, r.paint(errStyle, fmt.Sprintf("trace aborted: %v", o.Err)))
	}

	if !o.HasAddr() {
		line := fmt.Sprintf("%2d  %s", o.HopCount, r.paint(timeoutStyle, "*"))
		if o.Reason == hop.ReasonMaxTTLExceeded {
			line += "  " + r.paint(timeoutStyle, "(max hops reached)")
		}
		return line
	}

	return fmt.Sprintf("%2d  %s  %s",
		o.HopCount,
		r.paint(addrStyle, o.Addr.String()),
		r.paint(rttStyle, r.FormatRTT(*o.RTT)))
}

// Render drains the stream, writing each observation as it arrives, and
// returns the terminal observation once the stream closes.
func (r *SimpleRenderer) Render(stream <-chan hop.Observation) (last hop.Observation) {
	for o := range stream {
		fmt.Fprintln(r.Out, r.RenderObservation(o))
		if o.IsLast {
			last = o
		}
	}
	return last
}

func (r *SimpleRenderer) paint(style lipgloss.Style, s string) string {
	if r.NoColor {
		return s
	}
	return style.Render(s)
}
