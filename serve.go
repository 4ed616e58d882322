package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nstehr/hive/agent"
	"github.com/nstehr/hive/config"
	"github.com/nstehr/hive/ipc"
	"github.com/nstehr/hive/journal"
	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/rules"
)

func serveCmd() *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept host connections and answer every game_state with intents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(level)
			if err != nil {
				return err
			}
			printBanner()
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&level, "log-level", "", "override log.level")
	return cmd
}

// server holds what every host session shares. Each connection gets its own
// Runner so diffing and room seeding stay per session.
type server struct {
	cfg       config.Config
	codec     *memory.Codec
	engine    *rules.Engine
	validator *model.Validator
	journal   *journal.Writer // shared; nil when disabled
	opts      agent.Options
	ctx       context.Context
}

func serve(cfg config.Config) error {
	slog.Info("starting hive", "transport", cfg.Transport.Kind, "memory", cfg.Memory.Kind)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	validator, err := model.NewValidator()
	if err != nil {
		return err
	}
	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := &server{cfg: cfg, codec: memory.NewCodec(store), engine: engine, validator: validator, opts: opts, ctx: ctx}
	if s.journal = openJournal(cfg); s.journal != nil {
		defer s.journal.Close()
	}
	go s.watchReload(ctx)

	switch cfg.Transport.Kind {
	case "websocket":
		return s.serveWebsocket(ctx)
	default:
		return s.serveUnix(ctx)
	}
}

func (s *server) serveUnix(ctx context.Context) error {
	socketPath := s.cfg.Transport.Socket

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(socketPath); err != nil {
		return err
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}
	defer os.Remove(socketPath)

	slog.Info("listening on domain socket", "path", socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				slog.Info("shutting down")
				return nil
			default:
				slog.Error("failed to accept connection", "error", err)
				continue
			}
		}
		slog.Info("new connection accepted")
		go s.handle(ipc.NewStreamFramer(conn))
	}
}

func (s *server) serveWebsocket(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Transport.Path, ipc.WSHandler(s.handle))
	srv := &http.Server{Addr: s.cfg.Transport.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("listening for websocket hosts", "addr", s.cfg.Transport.Addr, "path", s.cfg.Transport.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("shutting down")
	return nil
}

func (s *server) handle(f ipc.Framer) {
	runner := agent.NewRunner(s.codec, s.engine, s.opts)
	runner.Journal = s.journal

	c := ipc.NewConnection(f, nil)
	a := agent.New(s.ctx, c, runner, s.validator)
	a.Register()
	c.ReadLoop()
}

// watchReload recompiles the rule set on SIGHUP. A config that fails to
// load or compile leaves the running rules in place.
func (s *server) watchReload(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(configPath)
			if err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			rs, err := cfg.RuleSet()
			if err == nil {
				err = s.engine.Swap(rs)
			}
			if err != nil {
				slog.Error("rule reload failed", "error", err)
				continue
			}
			slog.Info("rules reloaded", "rules", s.engine.Rules())
		}
	}
}
