package common

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 3, 4); got != 3 {
		t.Errorf("Coalesce = %d, want 3", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("Coalesce of zeros = %q", got)
	}
}

func TestClampAndWrap(t *testing.T) {
	if Clamp(2, -1.5, 1.5) != 1.5 || Clamp(-2, -1.5, 1.5) != -1.5 || Clamp(0.5, -1.5, 1.5) != 0.5 {
		t.Error("Clamp does not restrict to range")
	}
	if w := WrapAngle(-math.Pi / 2); math.Abs(float64(w)-1.5*math.Pi) > 1e-5 {
		t.Errorf("WrapAngle(-π/2) = %v", w)
	}
	if w := WrapAngle(5 * math.Pi); math.Abs(float64(w)-math.Pi) > 1e-5 {
		t.Errorf("WrapAngle(5π) = %v", w)
	}
}

func TestAlignUp(t *testing.T) {
	cases := map[uint64]uint64{0: 0, 1: 256, 80: 256, 256: 256, 257: 512}
	for in, want := range cases {
		if got := AlignUp(in, 256); got != want {
			t.Errorf("AlignUp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Fatal("default logger should be silent")
	}

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	Logger().Debug("cascade split", "index", 2)
	if !strings.Contains(buf.String(), "cascade split") || !strings.Contains(buf.String(), "index=2") {
		t.Errorf("log output = %q", buf.String())
	}

	SetLogger(nil)
	if Logger() == nil || Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}
