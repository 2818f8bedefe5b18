package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/logging"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/session"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/tray"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "abhinaya: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath(), "Path to the YAML config file")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cameraFlag := flag.Int("camera", -1, "Camera device index (overrides camera.id)")
	levelFlag := flag.String("log-level", "", "Log level: debug, info, warn or error")
	noTray := flag.Bool("no-tray", false, "Run without the system tray menu")
	mockDetector := flag.Bool("mock-detector", false, "Use a detector that never sees a face (UI development)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("abhinaya", version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *cameraFlag >= 0 {
		cfg.Camera.ID = *cameraFlag
	}
	if *levelFlag != "" {
		cfg.Log.Level = *levelFlag
	}

	logs, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir, Console: cfg.Log.Console})
	if err != nil {
		return err
	}
	defer logs.Close()
	logger := logs.Logger
	logger.Info().Str("version", version).Str("config", *configPath).Msg("starting")

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	live := restoreSettings(cfg.Settings, st, logger)

	desktop := effector.NewDesktop(logger)
	screen := screenSize(cfg.Screen, desktop)
	logger.Info().Int("width", screen.Width).Int("height", screen.Height).Msg("screen")

	eff, err := buildEffector(cfg, desktop, logger)
	if err != nil {
		return err
	}

	dcfg := effector.DefaultDispatcherConfig()
	dcfg.Logger = logger
	dispatcher := effector.NewDispatcher(eff, dcfg)

	ctrl := session.NewController(session.Config{
		Settings:   live,
		Screen:     screen,
		Margin:     cfg.Screen.Margin,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	det, err := buildDetector(cfg.Detector, *mockDetector)
	if err != nil {
		return err
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = cfg.Camera.ID
	camCfg.Mirror = cfg.Camera.Mirror
	camCfg.FPS = cfg.Pipeline.ActiveFPS
	camCfg.Logger = logger

	application, err := app.New(app.Config{
		Camera:     capture.NewCamera(camCfg),
		Detector:   det,
		Controller: ctrl,
		Dispatcher: dispatcher,
		Store:      st,
		Pipeline:   cfg.Pipeline,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		StaticDir:  findWebDir(cfg.Server.StaticDir),
		Controller: ctrl,
		Settings:   live,
		Events:     st.Events(),
		Frames:     application.Preview(),
		Logger:     logger,
	})
	application.OnFrame(srv.Hub().Publish)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer application.Stop()

	serveErr := make(chan error, 1)
	go func() {
		err := srv.Run(ctx, cfg.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
			stop()
		}
		serveErr <- err
	}()

	if *noTray {
		<-ctx.Done()
	} else {
		runTray(ctx, stop, ctrl, "http://"+browserAddr(cfg.Server.Addr), logger)
		stop()
	}

	logger.Info().Msg("shutting down")
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// restoreSettings starts from the config file values, applies the last
// saved values and persists every later change.
func restoreSettings(base config.Settings, st *store.Store, logger zerolog.Logger) *config.Live {
	live := config.NewLive(base)

	saved, err := st.Settings().Floats()
	if err != nil {
		logger.Warn().Err(err).Msg("load saved settings")
	} else {
		for name, err := range live.SetEach(saved) {
			logger.Warn().Err(err).Str("setting", name).Msg("saved setting rejected, using config value")
		}
	}

	live.OnChange(func(s config.Settings) {
		if err := st.Settings().SaveFloats(s.Values()); err != nil {
			logger.Error().Err(err).Msg("persist settings")
		}
	})
	return live
}

func screenSize(sc config.ScreenConfig, desktop *effector.Desktop) gesture.Size {
	if sc.Width > 0 && sc.Height > 0 {
		return gesture.Size{Width: sc.Width, Height: sc.Height}
	}
	w, h := desktop.ScreenSize()
	return gesture.Size{Width: w, Height: h}
}

func buildEffector(cfg *config.File, desktop *effector.Desktop, logger zerolog.Logger) (effector.Effector, error) {
	if cfg.Keys.Backend != config.KeyBackendPlugin {
		return desktop, nil
	}

	mgr := plugin.NewManager(cfg.Plugins.Dir, logger)
	if err := mgr.Discover(); err != nil {
		return nil, err
	}
	p, err := mgr.Get(cfg.Keys.Plugin)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("plugin", p.Manifest.Name).Msg("keys dispatched through plugin")
	return effector.NewPlugin(p, plugin.NewExecutor(cfg.Plugins.Timeout), desktop)
}

func buildDetector(dc config.DetectorConfig, mock bool) (detector.Detector, error) {
	if mock {
		return detector.NewMockDetector(), nil
	}
	dcfg := detector.DefaultConfig()
	dcfg.MinConfidence = dc.MinConfidence
	dcfg.MinTrackingConf = dc.MinTrackingConf
	dcfg.IdleTimeoutSec = dc.IdleTimeoutSec
	return detector.NewMediaPipeDetector(dcfg)
}

func runTray(ctx context.Context, stop context.CancelFunc, ctrl *session.Controller, url string, logger zerolog.Logger) {
	t := tray.New(ctrl, logger)
	t.SetState(ctrl.State())
	ctrl.OnStateChange(t.SetState)
	ctrl.OnKeyboardToggle(t.SetKeyboard)
	t.OnSettings(func() {
		if err := openBrowser(url); err != nil {
			logger.Warn().Err(err).Str("url", url).Msg("open settings")
		}
	})
	t.OnQuit(stop)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// browserAddr turns a listen address into one a browser can reach.
func browserAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	return addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir resolves the static UI directory. Relative paths are tried
// from the working directory, its parents and ~/.abhinaya.
func findWebDir(dir string) string {
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		return ""
	}

	candidates := []string{
		dir,
		filepath.Join("..", dir),
		filepath.Join("..", "..", dir),
		filepath.Join(config.Dir(), dir),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
