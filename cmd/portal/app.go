package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/config"
	"github.com/Carmen-Shannon/oxy-portal/engine"
	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
	"github.com/Carmen-Shannon/oxy-portal/engine/debug"
	"github.com/Carmen-Shannon/oxy-portal/engine/loader"
	"github.com/Carmen-Shannon/oxy-portal/engine/portal"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-portal/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/Carmen-Shannon/oxy-portal/engine/viewport"
	"github.com/Carmen-Shannon/oxy-portal/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// app owns everything created at startup.
type app struct {
	cfg *config.Config
	log *zap.Logger

	tasks    *engine.TaskQueue
	window   window.Window
	camera   camera.Camera
	viewport viewport.Viewport
	renderer renderer.Renderer
	library  shader.Library
	scene    scene.Scene
	async    loader.Async
	engine   engine.Engine
	state    *debug.State
	setup    portal.Setup
	panel    debug.Panel

	cancel     context.CancelFunc
	background sync.WaitGroup
	watcher    shader.Watcher
}

// newApp creates the window, camera, renderer and loaders. GPU setup failures panic.
func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{
		cfg:   cfg,
		log:   log,
		tasks: engine.NewTaskQueue(),
		scene: scene.NewScene(),
		state: &debug.State{
			ClearColor:       common.MustParseHexColor(cfg.Scene.ClearColor),
			PortalColorStart: common.MustParseHexColor(cfg.Scene.PortalColorStart),
			PortalColorEnd:   common.MustParseHexColor(cfg.Scene.PortalColorEnd),
		},
	}

	// ── Window ──────────────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return nil, err
	}
	a.window = win

	// ── Camera ──────────────────────────────────────────────────────────
	controller := camera.NewOrbitController(
		camera.WithPosition(cfg.Camera.Position[0], cfg.Camera.Position[1], cfg.Camera.Position[2]),
		camera.WithTarget(0, 0, 0),
		camera.WithDamping(cfg.Camera.Damping),
	)
	a.camera = camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(cfg.Camera.FovDegrees)),
		camera.WithAspect(float32(win.Width())/float32(max(win.Height(), 1))),
		camera.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithController(controller),
	)

	// ── Shaders ─────────────────────────────────────────────────────────
	a.library = shader.NewLibrary(cfg.AssetPath(cfg.Assets.Shaders), nil)
	programs := make([]*shader.Program, 0, 3)
	for _, key := range []string{material.PipelineBasic, material.PipelinePortal, material.PipelineFireflies} {
		prog, err := a.library.Load(key)
		if err != nil {
			_ = win.Close()
			return nil, fmt.Errorf("load shaders: %w", err)
		}
		programs = append(programs, prog)
	}

	// ── Renderer ────────────────────────────────────────────────────────
	presentMode := renderer.PresentModeVSync
	if !cfg.Window.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	a.renderer = renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPrograms(programs...),
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(a.state.ClearColor),
		renderer.WithLogger(log),
	)

	// ── Viewport + input ────────────────────────────────────────────────
	a.viewport = viewport.NewViewport(win.Width(), win.Height(),
		viewport.WithCamera(a.camera),
		viewport.WithController(controller),
		viewport.WithSurface(a.renderer),
		viewport.WithDevicePixelRatio(win.PixelRatio()),
		viewport.WithMaxPixelRatio(cfg.Window.MaxPixelRatio),
	)
	win.SetResizeCallback(a.viewport.Resize)
	win.SetContentScaleCallback(a.viewport.SetDevicePixelRatio)
	win.SetPointerDownCallback(controller.PointerDown)
	win.SetPointerMoveCallback(controller.PointerMove)
	win.SetPointerUpCallback(controller.PointerUp)
	win.SetScrollCallback(controller.Zoom)

	// ── Loaders ─────────────────────────────────────────────────────────
	meshes := loader.NewMeshLoader(
		loader.WithLogger(log),
		loader.WithDecoderConfig(loader.DecoderConfig{Path: cfg.AssetPath(cfg.Assets.DecoderPath)}),
	)
	textures := loader.NewTextureLoader(
		loader.WithFlipY(false),
		loader.WithColorSpace(common.ColorSpaceSRGB),
	)
	a.async = loader.NewAsync(textures, meshes, a.tasks,
		loader.WithAsyncLogger(log),
		loader.WithPool(cfg.Loader.Workers, cfg.Loader.QueueSize, cfg.Loader.IdleTimeout),
	)

	// ── Portal scene ────────────────────────────────────────────────────
	a.setup = portal.NewSetup(a.scene, a.async, portal.Params{
		TexturePath: cfg.AssetPath(cfg.Assets.Texture),
		ModelPath:   cfg.AssetPath(cfg.Assets.Model),
		Materials: material.PortalParams{
			PoleLightColor:   common.MustParseHexColor(cfg.Scene.PoleLightColor),
			PortalColorStart: a.state.PortalColorStart,
			PortalColorEnd:   a.state.PortalColorEnd,
			PixelRatio:       a.viewport.PixelRatio(),
			FireflySize:      cfg.Scene.FireflySize,
		},
		Fireflies: cfg.Scene.Fireflies,
	}, portal.WithLogger(log))
	fireflies := a.setup.Materials().Fireflies
	a.viewport.OnPixelRatioChange(func(ratio float32) {
		if err := fireflies.SetFloat(material.UniformPixelRatio, ratio); err != nil {
			log.Error("pixel ratio not applied to fireflies", zap.Float32("ratio", ratio), zap.Error(err))
		}
	})

	// ── Engine ──────────────────────────────────────────────────────────
	a.engine = engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(a.renderer),
		engine.WithScene(a.scene),
		engine.WithCamera(a.camera),
		engine.WithClocks(a.setup.Materials()),
		engine.WithTaskQueue(a.tasks),
		engine.WithLogger(log),
		engine.WithRenderFrameLimit(cfg.Window.FrameLimit),
		engine.WithProfiling(cfg.Profiler.Enabled, cfg.Profiler.Interval),
	)
	return a, nil
}

// run starts the background services and the asset loads, then blocks in the render loop.
// The texture and model loads finish independently on the loop goroutine.
func (a *app) run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	if a.cfg.Shaders.HotReload {
		if err := a.watchShaders(ctx); err != nil {
			a.log.Warn("shader hot reload disabled", zap.Error(err))
		}
	}

	if a.cfg.Debug.Enabled {
		if err := a.serveDebugPanel(ctx); err != nil {
			a.log.Error("debug panel disabled", zap.Error(err))
		}
	}

	a.setup.Start()
	return a.engine.Run(ctx)
}

// serveDebugPanel binds the panel to the debug state and serves it until ctx ends.
func (a *app) serveDebugPanel(ctx context.Context) error {
	panel, err := debug.NewPortalPanel(a.state, debug.PortalTargets{
		Renderer:       a.renderer,
		Materials:      a.setup.Materials(),
		EndColorSource: a.cfg.Scene.EndColorSource,
	}, a.log)
	if err != nil {
		return err
	}
	a.panel = panel

	srv := debug.NewServer(panel, a.tasks, a.log)
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		if err := srv.Serve(ctx, a.cfg.Debug.Listen); err != nil {
			a.log.Error("debug panel stopped", zap.Error(err))
		}
	}()
	return nil
}

// watchShaders reloads edited programs from disk and swaps them into the renderer on the loop.
func (a *app) watchShaders(ctx context.Context) error {
	w, err := shader.NewWatcher(a.library,
		func(prog *shader.Program) {
			a.tasks.Post(func() {
				if err := a.renderer.SetProgram(prog); err != nil {
					a.log.Error("shader reload rejected", zap.String("program", prog.Key), zap.Error(err))
				}
			})
		},
		func(err error) {
			a.log.Warn("shader reload failed", zap.Error(err))
		},
		a.log,
	)
	if err != nil {
		return err
	}
	a.watcher = w

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		_ = w.Run(ctx)
	}()
	return nil
}

// close stops background work and releases the window.
func (a *app) close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	a.async.Close()
	a.background.Wait()
	_ = a.window.Close()
}
