// Command csm_demo renders a lit scene with cascaded shadow maps: a ground plane, a field of
// spinning cubes, and any glTF models given on the command line, under a single sun.
//
// Controls: WASD and E/Q to move, arrow keys to look, C toggles camera culling, P toggles
// the profiler.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine"
	"github.com/Carmen-Shannon/oxy-csm/engine/camera"
	"github.com/Carmen-Shannon/oxy-csm/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csm/engine/light"
	"github.com/Carmen-Shannon/oxy-csm/engine/loader"
	"github.com/Carmen-Shannon/oxy-csm/engine/model"
	"github.com/Carmen-Shannon/oxy-csm/engine/renderer"
	"github.com/Carmen-Shannon/oxy-csm/engine/scene"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
	"github.com/Carmen-Shannon/oxy-csm/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

type config struct {
	width, height  int
	resolution     uint
	cascades       int
	lambda         float64
	framesInFlight int
	models         string
	honorCasts     bool
	vsync          bool
	msaa           int
	grid           int
	debug          bool
}

func parseFlags() config {
	var c config
	flag.IntVar(&c.width, "width", 1600, "window width in pixels")
	flag.IntVar(&c.height, "height", 900, "window height in pixels")
	flag.UintVar(&c.resolution, "resolution", 2048, "shadow map resolution per cascade")
	flag.IntVar(&c.cascades, "cascades", 4, "number of shadow cascades (1-4)")
	flag.Float64Var(&c.lambda, "lambda", 0.73, "split blend between uniform (0) and logarithmic (1)")
	flag.IntVar(&c.framesInFlight, "frames-in-flight", 2, "shadow resource sets cycled across frames")
	flag.StringVar(&c.models, "models", "", "comma-separated glTF/GLB files to load")
	flag.BoolVar(&c.honorCasts, "honor-casts-shadow", false, "only draw objects flagged as shadow casters into the cascades")
	flag.BoolVar(&c.vsync, "vsync", true, "present with vsync")
	flag.IntVar(&c.msaa, "msaa", 4, "main pass sample count (1, 4, 8, 16)")
	flag.IntVar(&c.grid, "grid", 8, "cubes per side of the cube field")
	flag.BoolVar(&c.debug, "debug", false, "log per-frame diagnostics")
	flag.Parse()
	return c
}

func main() {
	cfg := parseFlags()

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "csm_demo:", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	// ── Engine + Window ─────────────────────────────────────────────────
	win := window.NewWindow(
		window.WithTitle("Oxy Engine - Cascaded Shadow Maps"),
		window.WithSize(cfg.width, cfg.height),
	)
	// Deferred first so the window outlives every GPU resource.
	defer func() {
		if err := win.Close(); err != nil {
			common.Logger().Warn("window close failed", "err", err)
		}
	}()

	eng := engine.NewEngine(
		engine.WithProfiling(true),
		engine.WithTickRate(60),
		engine.WithWindow(win),
	)

	// ── Renderer ────────────────────────────────────────────────────────
	present := renderer.PresentModeUncapped
	if cfg.vsync {
		present = renderer.PresentModeVSync
	}
	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPresentMode(present),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.msaa)),
		renderer.WithClearColor(mgl32.Vec3{0.45, 0.6, 0.8}),
	)
	defer r.Release()

	// ── Camera ──────────────────────────────────────────────────────────
	cam := camera.NewCamera(
		camera.WithFov(float32(50.0*math.Pi/180.0)),
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
		camera.WithNear(0.1),
		camera.WithFar(150),
		camera.WithController(camera.NewMovementController(
			camera.WithPosition(mgl32.Vec3{0, 6, -18}),
			camera.WithRotation(mgl32.Vec3{0.3, 0, 0}),
			camera.WithMoveSpeed(8),
		)),
	)

	// ── Scene ───────────────────────────────────────────────────────────
	sun := light.NewSun(mgl32.Vec3{1, 1, -0.2},
		light.WithColor(mgl32.Vec3{1.0, 0.95, 0.85}),
		light.WithIntensity(1.2),
	)
	sc := scene.NewScene("csm", cam, r,
		scene.WithActive(true),
		scene.WithLights(sun),
		scene.WithAmbientColor(mgl32.Vec3{0.1, 0.1, 0.13}),
		scene.WithShadowOptions(
			shadow.WithResolution(uint32(cfg.resolution)),
			shadow.WithCascadeCount(cfg.cascades),
			shadow.WithLambda(float32(cfg.lambda)),
			shadow.WithFramesInFlight(cfg.framesInFlight),
			shadow.WithHonorCastsShadow(cfg.honorCasts),
		),
	)
	defer sc.Release()

	// ── Geometry ────────────────────────────────────────────────────────
	ground := model.NewPlane("ground", 200)
	cube := model.NewCube("cube", 1)
	for _, m := range []model.Model{ground, cube} {
		if err := m.Upload(r); err != nil {
			return fmt.Errorf("failed to upload %s: %w", m.Name(), err)
		}
		defer m.Release()
	}

	sc.Add(game_object.NewGameObject(
		game_object.WithModel(ground),
		game_object.WithColor(mgl32.Vec4{0.55, 0.6, 0.5, 1}),
	))

	spacing := float32(4)
	half := float32(cfg.grid-1) * spacing / 2
	for i := range cfg.grid {
		for j := range cfg.grid {
			h := 1 + float32((i*7+j*3)%4)
			sc.Add(game_object.NewGameObject(
				game_object.WithModel(cube),
				game_object.WithCastsShadow(true),
				game_object.WithPosition(float32(i)*spacing-half, h/2, float32(j)*spacing-half+10),
				game_object.WithScale(1, h, 1),
				game_object.WithRotationSpeed(0, 0.2*float32((i+j)%3), 0),
				game_object.WithColor(mgl32.Vec4{0.8, 0.35 + 0.05*float32(i%4), 0.25, 1}),
			))
		}
	}

	// A point light carried by a small bright cube.
	lamp := light.NewLight(light.LightTypePoint,
		light.WithColor(mgl32.Vec3{1.0, 0.6, 0.2}),
		light.WithIntensity(2),
		light.WithRange(12),
	)
	sc.Add(game_object.NewGameObject(
		game_object.WithModel(cube),
		game_object.WithPosition(0, 3, 10),
		game_object.WithScale(0.3, 0.3, 0.3),
		game_object.WithColor(mgl32.Vec4{1, 0.8, 0.4, 1}),
		game_object.WithLight(lamp),
	))

	// ── glTF models ─────────────────────────────────────────────────────
	if paths := splitPaths(cfg.models); len(paths) > 0 {
		ldr := loader.NewLoader(loader.BackendTypeGLTF, loader.WithUploader(r))
		defer ldr.Release()

		models, err := ldr.LoadAll(paths...)
		if err != nil {
			common.Logger().Warn("some models failed to load", "err", err)
		}
		for i, m := range models {
			if m == nil {
				continue
			}
			sc.Add(game_object.NewGameObject(
				game_object.WithModel(m),
				game_object.WithCastsShadow(true),
				game_object.WithPosition(float32(i)*6-float32(len(models)-1)*3, 0, 2),
			))
		}
	}

	// ── Input ───────────────────────────────────────────────────────────
	profiling := true
	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyC:
			sc.SetCullingDisabled(!sc.CullingDisabled())
			common.Logger().Info("camera culling", "disabled", sc.CullingDisabled())
		case common.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		}
	})

	eng.AddScene(0, sc)
	eng.Run()
	return nil
}

func splitPaths(list string) []string {
	var out []string
	for p := range strings.SplitSeq(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
