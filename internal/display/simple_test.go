package display

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/havenmarch/rtrace/pkg/hop"
)

func noColorRenderer(buf *bytes.Buffer) *SimpleRenderer {
	r := NewSimpleRenderer(buf)
	r.NoColor = true
	return r
}

func TestFormatRTT(t *testing.T) {
	var buf bytes.Buffer
	r := noColorRenderer(&buf)

	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Microsecond, "1.50ms"},
		{time.Second, "1000.00ms"},
		{0, "0.00ms"},
	}
	for _, tt := range tests {
		if got := r.FormatRTT(tt.d); got != tt.want {
			t.Errorf("FormatRTT(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRenderObservation_Responder(t *testing.T) {
	var buf bytes.Buffer
	r := noColorRenderer(&buf)

	o := hop.Intermediate(3, net.ParseIP("198.51.100.7"), 0, 12*time.Millisecond)
	line := r.RenderObservation(o)
	if !strings.Contains(line, "198.51.100.7") {
		t.Errorf("expected responder address in line, got %q", line)
	}
	if !strings.Contains(line, "12.00ms") {
		t.Errorf("expected RTT in line, got %q", line)
	}
	if !strings.HasPrefix(line, " 3") {
		t.Errorf("expected hop number prefix, got %q", line)
	}
}

func TestRenderObservation_Timeout(t *testing.T) {
	var buf bytes.Buffer
	r := noColorRenderer(&buf)

	line := r.RenderObservation(hop.TimedOut(5, 4))
	if !strings.Contains(line, "*") {
		t.Errorf("expected * for timed-out hop, got %q", line)
	}
}

func TestRenderObservation_MaxTTLExceeded(t *testing.T) {
	var buf bytes.Buffer
	r := noColorRenderer(&buf)

	line := r.RenderObservation(hop.MaxTTLExceeded(31, 0))
	if !strings.Contains(line, "max hops reached") {
		t.Errorf("expected max-hops note, got %q", line)
	}
}

func TestRenderObservation_TransportFailure(t *testing.T) {
	var buf bytes.Buffer
	r := noColorRenderer(&buf)

	o := hop.TransportFailure(1, 0, errors.New("operation not permitted"))
	line := r.RenderObservation(o)
	if !strings.Contains(line, "trace aborted") || !strings.Contains(line, "operation not permitted") {
		t.Errorf("expected abort line with cause, got %q", line)
	}
}

func TestRender_DrainsStreamAndReturnsTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := noColorRenderer(&buf)

	ch := make(chan hop.Observation, 3)
	ch <- hop.Intermediate(1, net.ParseIP("192.0.2.1"), 0, time.Millisecond)
	ch <- hop.TimedOut(2, 4)
	ch <- hop.DestinationReached(3, net.ParseIP("192.0.2.9"), 0, 2*time.Millisecond)
	close(ch)

	last := r.Render(ch)
	if !last.IsLast || last.Reason != hop.ReasonDestinationReached {
		t.Errorf("expected destination-reached terminal, got %+v", last)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 output lines, got %d: %q", len(lines), buf.String())
	}
}
