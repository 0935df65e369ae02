package window

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-csm/common"
)

func TestBuilderOptions(t *testing.T) {
	w := newEngineWindow(
		WithTitle("shadows"),
		WithSize(800, 600),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
	)
	if w.title != "shadows" {
		t.Errorf("expected title shadows, got %q", w.title)
	}
	if w.Width() != 800 || w.Height() != 600 {
		t.Errorf("expected 800x600, got %dx%d", w.Width(), w.Height())
	}
	if w.minWidth != 100 || w.minHeight != 50 || w.maxWidth != 1920 || w.maxHeight != 1080 {
		t.Errorf("unexpected size limits %d %d %d %d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
}

func TestKeyState(t *testing.T) {
	w := newEngineWindow()
	var downs, ups []uint32
	w.SetKeyDownCallback(func(k uint32) { downs = append(downs, k) })
	w.SetKeyUpCallback(func(k uint32) { ups = append(ups, k) })

	w.handleKey(common.KeyW, true)
	if !w.IsKeyPressed(common.KeyW) {
		t.Fatal("expected W pressed")
	}
	if w.IsKeyPressed(common.KeyS) {
		t.Error("expected S released")
	}

	w.handleKey(common.KeyW, false)
	if w.IsKeyPressed(common.KeyW) {
		t.Error("expected W released after key up")
	}
	if len(downs) != 1 || len(ups) != 1 {
		t.Errorf("expected one down and one up event, got %v and %v", downs, ups)
	}
}

func TestKeyStateConcurrentReads(t *testing.T) {
	w := newEngineWindow()
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = w.IsKeyPressed(uint32(common.KeyA + i))
			}
		}()
	}
	for range 100 {
		w.handleKey(common.KeyA, true)
		w.handleKey(common.KeyA, false)
	}
	wg.Wait()
}

func TestResizeCallback(t *testing.T) {
	w := newEngineWindow()
	var gotW, gotH int
	w.SetResizeCallback(func(width, height int) { gotW, gotH = width, height })
	w.handleResize(1024, 768)
	if gotW != 1024 || gotH != 768 || w.Width() != 1024 || w.Height() != 768 {
		t.Errorf("expected 1024x768, got callback %dx%d stored %dx%d", gotW, gotH, w.Width(), w.Height())
	}
}
