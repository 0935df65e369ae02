package shadow

import (
	"errors"
	"testing"
)

func TestDepthTargetManagerLayout(t *testing.T) {
	dev := newFakeDevice()
	m, err := NewDepthTargetManager(dev, 1024, 3, 2)
	if err != nil {
		t.Fatalf("NewDepthTargetManager: %v", err)
	}
	defer m.Release()

	if dev.counts["texture"] != 2 {
		t.Errorf("created %d textures, want one per frame", dev.counts["texture"])
	}
	// 3 layer views and 1 array view per frame.
	if dev.counts["view"] != 8 {
		t.Errorf("created %d views, want 8", dev.counts["view"])
	}
	if dev.counts["sampler"] != 1 {
		t.Errorf("created %d samplers, want 1", dev.counts["sampler"])
	}
	if got := m.LayerView(1, 2).(*fakeResource).label; got != "shadow_depth_frame_1_layer_2" {
		t.Errorf("layer view label = %q", got)
	}
	if got := m.ArrayView(0).(*fakeResource).label; got != "shadow_depth_frame_0_array" {
		t.Errorf("array view label = %q", got)
	}
	if m.Resolution() != 1024 || m.CascadeCount() != 3 || m.FramesInFlight() != 2 {
		t.Errorf("unexpected sizes %d/%d/%d", m.Resolution(), m.CascadeCount(), m.FramesInFlight())
	}
}

func TestDepthTargetManagerPartialFailure(t *testing.T) {
	cases := []struct {
		kind string
		at   int
	}{
		{"texture", 2},
		{"view", 3},
		{"view", 6},
		{"sampler", 1},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			dev := newFakeDevice()
			dev.failKind, dev.failAt = tc.kind, tc.at

			if _, err := NewDepthTargetManager(dev, 256, 4, 2); !errors.Is(err, errInjected) {
				t.Fatalf("expected injected error, got %v", err)
			}
			if n := dev.liveCount(); n != 0 {
				t.Errorf("%d resources leaked", n)
			}
		})
	}
}

func TestDepthTargetManagerReleaseIdempotent(t *testing.T) {
	dev := newFakeDevice()
	m, err := NewDepthTargetManager(dev, 256, 2, 1)
	if err != nil {
		t.Fatalf("NewDepthTargetManager: %v", err)
	}
	m.Release()
	n := len(dev.releases)
	m.Release()
	if len(dev.releases) != n {
		t.Errorf("second Release freed %d more resources", len(dev.releases)-n)
	}
}
