// Package app wires the detection session to its camera, recognition service,
// storage and event consumers.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/capture"
	"github.com/ayusman/cardsight/internal/config"
	"github.com/ayusman/cardsight/internal/plugin"
	"github.com/ayusman/cardsight/internal/publish"
	"github.com/ayusman/cardsight/internal/recognition"
	"github.com/ayusman/cardsight/internal/render"
	"github.com/ayusman/cardsight/internal/server"
	"github.com/ayusman/cardsight/internal/session"
	"github.com/ayusman/cardsight/internal/store"
	"github.com/ayusman/cardsight/internal/tray"
)

// SettingNumPlayers remembers the last player count across runs.
const SettingNumPlayers = "num_players"

// Options holds the collaborators of an App. Nil fields get production defaults
// built from Config.
type Options struct {
	Config     *config.Config
	Logger     logrus.FieldLogger
	Store      *store.Store
	Camera     capture.Camera
	Source     capture.SourceSampler
	Recognizer recognition.Recognizer
	StaticDir  string
	// Output receives the terminal rendering when Config.Terminal is set.
	Output io.Writer
}

// App is the running cardsight daemon.
type App struct {
	config     *config.Config
	log        logrus.FieldLogger
	session    *session.Session
	store      *store.Store
	storeSink  *store.Sink
	redis      *publish.RedisSink
	plugins    *plugin.Sink
	hub        *server.EventHub
	tray       *tray.Tray
	server     *server.Server
	recognizer recognition.Recognizer
}

// New builds the session and every sink enabled by the configuration.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	recognizer := opts.Recognizer
	if recognizer == nil {
		client, err := recognition.NewHTTPClient(cfg.RecognizerURL, &http.Client{Timeout: cfg.RecognizerTimeout})
		if err != nil {
			return nil, err
		}
		recognizer = client
	}

	camera := opts.Camera
	source := opts.Source
	if source == nil {
		if camera == nil {
			camera = capture.NewCamera(cfg.CameraID)
		}
		source = capture.NewCameraSampler(camera, cfg.JPEGQuality)
	}

	numPlayers := cfg.NumPlayers
	if opts.Store != nil {
		if n := opts.Store.Settings().GetInt(SettingNumPlayers, 0); n >= 1 && n <= cfg.MaxPlayers {
			numPlayers = n
		}
	}

	a := &App{
		config:     cfg,
		log:        log,
		store:      opts.Store,
		hub:        server.NewEventHub(log),
		recognizer: recognizer,
	}

	// Sinks are attached after the session exists since they are keyed by its id.
	fanout := &sinkSet{}
	sess, err := session.New(session.Config{
		NumPlayers:   numPlayers,
		MaxPlayers:   cfg.MaxPlayers,
		Interval:     cfg.Interval,
		StrictLabels: cfg.StrictLabels,
		Logger:       log,
	}, source, recognizer, fanout)
	if err != nil {
		return nil, err
	}
	a.session = sess

	sinks := session.MultiSink{}
	if opts.Store != nil {
		a.storeSink, err = store.NewSink(opts.Store, sess.ID(), numPlayers, log)
		if err != nil {
			sess.Close()
			return nil, fmt.Errorf("recording session: %w", err)
		}
		sinks = append(sinks, a.storeSink, &settingsSink{settings: opts.Store.Settings(), log: log})
	}
	sinks = append(sinks, a.hub)

	if cfg.RedisAddr != "" {
		a.redis, err = publish.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisChannel, sess.ID(), log)
		if err != nil {
			sess.Close()
			return nil, err
		}
		sinks = append(sinks, a.redis)
	}

	manager := plugin.NewManager(cfg.PluginPath(), log)
	if err := manager.Discover(); err != nil {
		log.WithError(err).WithField("dir", cfg.PluginPath()).Warn("failed to discover plugins")
	} else if n := len(manager.List()); n > 0 {
		a.plugins = plugin.NewSink(manager, plugin.NewExecutor(cfg.PluginTimeout), sess.ID(), log)
		sinks = append(sinks, a.plugins)
		log.WithField("count", n).Info("plugins loaded")
	}

	if cfg.Terminal {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		sinks = append(sinks, render.NewTerminalSink(out))
	}

	if cfg.Tray {
		a.tray = tray.New()
		sinks = append(sinks, a.tray)
	}
	fanout.set(sinks)

	a.server = server.New(server.Config{
		StaticDir:  opts.StaticDir,
		Session:    sess,
		Recognizer: recognizer,
		Store:      opts.Store,
		Camera:     camera,
		Hub:        a.hub,
		DetectRate: cfg.DetectRate,
		Logger:     log,
	})

	log.WithFields(logrus.Fields{
		"session_id":  sess.ID(),
		"num_players": numPlayers,
		"recognizer":  cfg.RecognizerURL,
	}).Info("session created")
	return a, nil
}

// Session returns the detection session.
func (a *App) Session() *session.Session {
	return a.session
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.server
}

// Tray returns the tray controls, or nil when the tray is disabled.
func (a *App) Tray() *tray.Tray {
	return a.tray
}

// ToggleDetection starts the loop, acquiring the source first when needed, or stops it.
func (a *App) ToggleDetection(detecting bool) error {
	if !detecting {
		a.session.StopLoop()
		return nil
	}

	if a.session.State() == session.StateIdle {
		if err := a.session.AcquireSource(); err != nil {
			return err
		}
	}
	return a.session.StartLoop()
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	err := a.server.ListenAndServe(ctx, a.config.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the session and releases every sink.
func (a *App) Close() error {
	var errs []error
	errs = append(errs, a.session.Close())

	if a.storeSink != nil {
		errs = append(errs, a.storeSink.End())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.plugins != nil {
		errs = append(errs, a.plugins.Close())
	}

	a.log.Info("session closed")
	return errors.Join(errs...)
}

// settingsSink remembers the player count whenever the hands are reset for a new count.
type settingsSink struct {
	session.NopSink
	settings *store.SettingsRepository
	log      logrus.FieldLogger
}

func (s *settingsSink) OnHandUpdate(u session.HandUpdate) {
	if !u.Reset {
		return
	}
	if err := s.settings.Set(SettingNumPlayers, strconv.Itoa(len(u.Hands))); err != nil {
		s.log.WithError(err).Warn("failed to save player count")
	}
}
