// Command pbrview renders a scene file with the deferred PBR renderer.
//
//	pbrview -config viewer.toml -scene room.pbrscene -hdr studio.hdr
//
// Drag with the left mouse button to orbit, scroll to zoom, F12 saves a
// screenshot and Escape quits. B toggles bloom, S the skybox, and E and Q
// raise and lower the exposure. The config file is watched and reapplied
// when it changes; the window keeps its size.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pbr-renderer/assets"
	"pbr-renderer/core"
	"pbr-renderer/internal/opengl"
	"pbr-renderer/io"
	"pbr-renderer/renderer"
	"pbr-renderer/scene"
)

func main() {
	configPath := flag.String("config", "", "TOML renderer config")
	scenePath := flag.String("scene", "", "scene file, overrides the config")
	hdrPath := flag.String("hdr", "", "environment image, overrides the config")
	shot := flag.String("screenshot", "", "render one frame, save it to this path and exit")
	flag.Parse()

	if err := run(*configPath, *scenePath, *hdrPath, *shot); err != nil {
		fmt.Fprintf(os.Stderr, "pbrview: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (renderer.Config, error) {
	if path == "" {
		return renderer.DefaultConfig(), nil
	}
	return renderer.LoadConfig(path)
}

func newLogger(cfg renderer.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func run(configPath, scenePath, hdrPath, shot string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if scenePath != "" {
		cfg.Scene = scenePath
	}
	if hdrPath != "" {
		cfg.HDR = hdrPath
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	renderer.SetLogger(logger)

	wc := core.DefaultWindowConfig()
	wc.Width, wc.Height = cfg.Width, cfg.Height
	wc.Hidden = shot != ""
	window, err := core.NewWindow(wc)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice()
	if err != nil {
		return err
	}
	logger.Info("opengl ready", "version", dev.Version())

	r, err := renderer.NewRenderer(dev, cfg)
	if err != nil {
		return err
	}
	defer r.Destroy()
	if err := r.Setup(); err != nil {
		return err
	}

	s, cam, err := loadScene(cfg.Scene)
	if err != nil {
		return err
	}
	cam.UpdateAspectRatio(cfg.Width, cfg.Height)

	env, err := loadEnvironment(cfg.HDR, cfg.EnvironmentSize)
	if err != nil {
		return err
	}
	if err := r.PrecomputeEnvironment(env); err != nil {
		return err
	}

	if shot != "" {
		if err := r.RenderFrame(s, cam); err != nil {
			return err
		}
		return saveScreenshot(r, shot)
	}

	var updates <-chan renderer.Config
	if configPath != "" {
		w, err := watchConfig(configPath)
		if err != nil {
			logger.Warn("config watch disabled", "err", err)
		} else {
			defer w.Close()
			updates = w.Updates
		}
	}

	window.OnResize(func(width, height int) {
		if width == 0 || height == 0 {
			return
		}
		cam.UpdateAspectRatio(width, height)
		if err := r.Resize(width, height); err != nil {
			logger.Error("resize failed", "err", err)
		}
	})
	window.SetScrollCallback(func(_, yoff float64) {
		cam.Zoom(float32(yoff) * 0.5)
	})

	ctl := &orbitControl{}
	keys := keyEdges{}
	lastTitle := window.Time()
	for !window.ShouldClose() {
		window.PollEvents()
		if window.IsKeyPressed(core.KeyEscape) {
			window.SetShouldClose()
		}
		ctl.update(window, cam)

		select {
		case next := <-updates:
			if err := r.ApplyConfig(reloadedConfig(next, r.Config())); err != nil {
				logger.Error("config rejected", "err", err)
			} else {
				logger.Info("config reloaded", "path", configPath)
			}
		default:
		}
		for _, key := range toggleKeys {
			if keys.pressed(window, key) {
				if err := r.ApplyConfig(keyAction(r.Config(), key)); err != nil {
					logger.Error("config rejected", "err", err)
				}
			}
		}

		if err := r.RenderFrame(s, cam); err != nil {
			return err
		}
		width, height := window.FramebufferSize()
		r.Present(width, height)
		window.SwapBuffers()

		if keys.pressed(window, core.KeyF12) {
			name := fmt.Sprintf("pbrview-%s.png", time.Now().Format("20060102-150405"))
			if err := saveScreenshot(r, name); err != nil {
				logger.Error("screenshot failed", "err", err)
			}
		}

		if now := window.Time(); now-lastTitle > 2 {
			st := r.Stats()
			window.SetTitle(fmt.Sprintf("%s - %d draws, %d culled, %.2f ms", wc.Title, st.Draws, st.Culled, float64(st.FrameTime.Microseconds())/1000))
			lastTitle = now
		}
	}
	return nil
}

func loadScene(path string) (*scene.Scene, *scene.OrbitCamera, error) {
	sf := io.NewDefaultSceneFile("default")
	dir := "."
	if path != "" {
		var err error
		if sf, err = io.LoadScene(path); err != nil {
			return nil, nil, err
		}
		dir = filepath.Dir(path)
	}
	return sf.Build(dir)
}

// loadEnvironment falls back to a flat grey sky without an image. LDR
// images are downscaled to four times the cube face size.
func loadEnvironment(path string, size int) (*assets.Image, error) {
	if path == "" {
		return assets.NewUniform(64, 32, 0.3, 0.3, 0.3), nil
	}
	return assets.LoadImage(path, 4*size)
}

func saveScreenshot(r *renderer.Renderer, path string) error {
	if err := assets.SaveImage(path, r.Screenshot()); err != nil {
		return err
	}
	renderer.Logger().Info("screenshot saved", "path", path)
	return nil
}
