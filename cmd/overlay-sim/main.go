package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/DoyleJ11/video-overlay/internal/config"
	"github.com/DoyleJ11/video-overlay/internal/hub"
	"github.com/DoyleJ11/video-overlay/internal/logging"
	"github.com/DoyleJ11/video-overlay/internal/overlay"
	"github.com/DoyleJ11/video-overlay/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file with OVERLAY_* settings")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: overlay-sim [-env file] scenario.yaml...")
		os.Exit(2)
	}
	if err := run(*envFile, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFile string, paths []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Build the hub and replay every scenario in its own session
	h := hub.NewHub(ctx, log)
	defer func() { h.Inbox() <- hub.ShutdownHub{} }()

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		g.Go(func() error { return replay(gctx, h, cfg.Overlay, path, log) })
	}
	return g.Wait()
}

func replay(ctx context.Context, h *hub.Hub, base overlay.Config, path string, log *zap.Logger) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	cfg := base
	if sc.Device != "" {
		cfg.Device = overlay.Device(sc.Device)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
	}

	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.CreateSession{Config: cfg, Reply: reply}
	var s *session.Session
	select {
	case s = <-reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	log = log.With(zap.String("scenario", sc.Name), zap.String("session", s.ID()))

	out := make(chan session.Notification, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logNotifications(out, log)
	}()
	if err := s.Send(ctx, session.Subscribe{ClientID: "overlay-sim", Outbox: out}); err != nil {
		close(out)
		<-done
		return err
	}

	playErr := Play(ctx, s, sc, log)

	h.Inbox() <- hub.RemoveSession{ID: s.ID()}
	<-done
	if playErr != nil {
		return playErr
	}
	log.Info("scenario finished")
	return nil
}
