package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/notary/app/services/notary/handlers"
	"github.com/ardanlabs/notary/business/core/ledger"
	"github.com/ardanlabs/notary/foundation/events"
	"github.com/ardanlabs/notary/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NOTARY")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		Ledger struct {
			Storage           string `conf:"default:leveldb,help:memory, disk or leveldb"`
			DBPath            string `conf:"default:zblock/ledger"`
			Digest            string `conf:"default:sha256,help:sha256, keccak256, sha3-256 or blake2b-256"`
			Difficulty        uint   `conf:"default:2"`
			GenesisDifficulty uint   `conf:"default:0"`
			MinDifficulty     uint   `conf:"default:0,help:0 uses the notarization difficulty"`
			MaxDifficulty     uint   `conf:"default:6,help:highest difficulty a request can ask for"`
			MaxTrials         uint64 `conf:"default:1073741824,help:0 searches without bound"`
			Workers           int    `conf:"default:0,help:0 uses one worker per cpu"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work notarization ledger",
		},
	}

	const prefix = "NOTARY"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	lgr, err := ledger.Open(context.Background(), ledger.Config{
		Storage:           cfg.Ledger.Storage,
		DBPath:            cfg.Ledger.DBPath,
		Digest:            cfg.Ledger.Digest,
		Difficulty:        cfg.Ledger.Difficulty,
		GenesisDifficulty: cfg.Ledger.GenesisDifficulty,
		MinDifficulty:     cfg.Ledger.MinDifficulty,
		MaxDifficulty:     cfg.Ledger.MaxDifficulty,
		MaxTrials:         cfg.Ledger.MaxTrials,
		Workers:           cfg.Ledger.Workers,
		EvHandler:         ev,
	})
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer lgr.Close()

	tip, err := lgr.Chain.Tip()
	if err != nil {
		return err
	}
	log.Infow("startup", "status", "ledger opened", "blocks", lgr.Chain.Length(), "tip", tip.Hash)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, lgr.Chain)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Chain:      lgr.Chain,
		Notary:     lgr.Notary,
		Evts:       evts,
		CorsOrigin: cfg.Web.CorsOrigin,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
