package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/automation"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/capture"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/command"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/config"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/detector"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/logging"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/records"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/server"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/session"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/store"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/tracking"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/tray"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/voice"
)

func main() {
	logger := logging.Init()
	defer logger.Sync()

	cfgPath := "portal.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalw("failed to load configuration", "path", cfgPath, "error", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Fatalw("failed to create data directory", "dir", cfg.DataDir, "error", err)
	}

	accounts := records.NewAccountStore(filepath.Join(cfg.DataDir, "accounts.json"))
	medical := records.NewMedicalStore(filepath.Join(cfg.DataDir, "medical.json"))

	activity, err := store.New(filepath.Join(cfg.DataDir, "activity.db"))
	if err != nil {
		logger.Fatalw("failed to open activity store", "error", err)
	}
	defer activity.Close()
	events := activity.Events()

	// Head tracking: camera frames through the landmark detector to the
	// OS pointer.
	camera := capture.NewCamera(cfg.CameraID)
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		logger.Fatalw("failed to initialize landmark detector", "error", err)
	}
	defer det.Close()

	auto := automation.NewRobotgo()
	blink := tracking.NewBlinkDetector(cfg.BlinkThreshold, time.Duration(cfg.BlinkCooldownMs)*time.Millisecond)
	tracker := tracking.NewTracker(camera, det, auto, blink, cfg.TrackingFPS, logger)

	// The interpreter's stop command and the voice listener close a cycle
	// with the controller, so the controller is bound through closures.
	var controller *session.Controller

	interp := command.New(auto, func() {
		if controller != nil {
			controller.Stop()
		}
	}, logger)
	interp.SetObserver(func(action, text string) {
		if action == command.ActionUnknown || controller == nil {
			return
		}
		user := controller.User()
		if user == nil {
			return
		}
		if err := events.Record(store.EventCommand, user.Username, action); err != nil {
			logger.Warnw("failed to record command event", "error", err)
		}
	})

	pipeline := voice.NewPipeline(
		voice.NewHTTPTranscriber(cfg.SpeechURL, logger),
		voice.NewHTTPTranslator(cfg.TranslateURL, logger),
		interp,
		func() string {
			if controller == nil {
				return cfg.DefaultLanguage
			}
			return controller.Language()
		},
		logger,
	)

	listener, err := voice.NewListener(cfg.VADThreshold, pipeline.HandleUtterance, logger)
	if err != nil {
		// No microphone: head tracking still works, voice commands don't.
		logger.Warnw("microphone unavailable, voice commands disabled", "error", err)
		listener = nil
	} else {
		defer listener.Close()
	}

	if listener != nil {
		controller = session.NewController(tracker, listener, logger)
	} else {
		controller = session.NewController(tracker, nil, logger)
	}

	// trayUpdate is filled in when the tray is enabled.
	var trayUpdate func(event, username string)
	controller.SetObserver(func(event, username string) {
		if err := events.Record(event, username, ""); err != nil {
			logger.Warnw("failed to record session event", "error", err)
		}
		if trayUpdate != nil {
			trayUpdate(event, username)
		}
	})

	srv := server.New(server.Config{
		StaticDir:  cfg.StaticDir,
		JWTSecret:  cfg.JWTSecret,
		Accounts:   accounts,
		Medical:    medical,
		Controller: controller,
		Events:     events,
		Logger:     logger,
	})
	defer srv.Close()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("portal listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	if cfg.EnableTray {
		runTray(cfg, controller, &trayUpdate, logger)
		return
	}

	if err := <-errCh; err != nil {
		logger.Fatalw("server failed", "error", err)
	}
}

// runTray blocks on the system tray event loop. Quitting the tray quits the
// portal.
func runTray(cfg *config.Config, controller *session.Controller, trayUpdate *func(event, username string), logger *zap.SugaredLogger) {
	t := tray.New()
	t.OnStop(controller.Stop)
	t.OnPortal(func() {
		fmt.Printf("Portal: http://localhost%s\n", cfg.Addr)
	})
	t.OnQuit(func() {
		controller.Stop()
		logger.Info("shutting down")
	})

	*trayUpdate = func(event, username string) {
		if event == store.EventSessionStarted {
			t.SetSession(username)
		} else {
			t.SetSession("")
		}
	}

	t.Run()
}
