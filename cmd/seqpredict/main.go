package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"seqpredict/internal/cfg"
	"seqpredict/internal/metrics"
	"seqpredict/internal/model"
	"seqpredict/internal/session"
	"seqpredict/internal/storage"
)

func main() {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()
	setupLogging()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	startMetricsServer(ctx, c)

	sess, err := session.New(sessionConfig(c), mw, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("session init failed")
	}
	restoreSession(sess, store, c, mw)

	// Serializes session access between the command loop and the
	// shutdown save; the session itself is not safe for concurrent use.
	var mu sync.Mutex

	go runLoop(ctx, cancel, sess, store, c, mw, &mu)

	waitForShutdown(ctx, sess, store, c, mw, &mu)
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func sessionConfig(c cfg.Settings) session.Config {
	return session.Config{
		Variant:     c.Variant,
		SequenceCap: c.SequenceCap,
		OutcomeCap:  c.OutcomeCap,
		Model: model.Config{
			SpikeThreshold: c.SpikeThreshold,
			LearningRate:   c.LearningRate,
			Window:         c.Window,
			LagWindow:      c.LagWindow,
			Decay:          c.Decay,
			NeuralDecay:    c.NeuralDecay,
		},
	}
}

// initializeStorage opens persistence if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// restoreSession reloads the persisted snapshot. A corrupt snapshot is
// reported and the session deliberately continues from defaults; the
// stored copy is left in place for inspection.
func restoreSession(sess *session.Session, store *storage.Store, c cfg.Settings, mw *metrics.MetricsWrapper) {
	if store == nil {
		return
	}
	snap, found, err := store.LoadSnapshot(c.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("session", c.SessionID).Msg("stored snapshot unreadable, starting from defaults")
		return
	}
	if !found {
		return
	}
	if err := sess.Restore(snap); err != nil {
		log.Warn().Err(err).Str("session", c.SessionID).Msg("snapshot rejected, starting from defaults")
		return
	}
	mw.SnapshotRestoreInc()
}

func saveSession(sess *session.Session, store *storage.Store, c cfg.Settings, mw *metrics.MetricsWrapper) {
	if store == nil {
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		log.Error().Err(err).Msg("snapshot failed")
		return
	}
	if err := store.SaveSnapshot(c.SessionID, snap); err != nil {
		log.Error().Err(err).Msg("snapshot save failed")
		return
	}
	mw.SnapshotSaveInc()
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// runLoop drives the interactive collaborator boundary: values in,
// predictions out, outcomes confirmed one at a time. mu guards every
// session access against the shutdown save.
func runLoop(ctx context.Context, cancel context.CancelFunc, sess *session.Session,
	store *storage.Store, c cfg.Settings, mw *metrics.MetricsWrapper, mu *sync.Mutex,
) {
	fmt.Printf("seqpredict (%s variant) - commands: add <values>, predict, confirm <value>, accuracy, reset, quit\n", c.Variant)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		mu.Lock()
		quit := handleCommand(line, sess, store, c, mw)
		mu.Unlock()
		if quit {
			cancel()
			return
		}
	}
	cancel()
}

// handleCommand executes one command line against the session and reports
// whether the loop should exit. The caller holds the session lock.
func handleCommand(line string, sess *session.Session, store *storage.Store,
	c cfg.Settings, mw *metrics.MetricsWrapper,
) bool {
	cmd, args, _ := strings.Cut(line, " ")

	switch strings.ToLower(cmd) {
	case "add":
		accepted, rejected := sess.Observe(args)
		fmt.Printf("accepted %d value(s), rejected %d\n", accepted, rejected)

	case "predict":
		p := sess.Predict()
		printPrediction(p, c.Variant)
		recordPrediction(store, c, p)

	case "confirm":
		actual, err := parseActual(args)
		if err != nil {
			fmt.Printf("confirm needs a numeric outcome: %v\n", err)
			return false
		}
		next, err := sess.Confirm(actual)
		if invalidConfirm(err) {
			// The outcome was rejected outright: nothing was recorded
			// and no prediction was regenerated, so show nothing.
			fmt.Printf("confirm rejected: %v\n", err)
			return false
		}
		if err != nil {
			fmt.Printf("note: %v\n", err)
		}
		fmt.Printf("trailing accuracy %.0f%%\n", sess.Accuracy()*100)
		// Short pacing pause before showing the regenerated prediction,
		// mirroring the interactive collaborator.
		time.Sleep(c.RegenDelay)
		printPrediction(next, c.Variant)
		recordPrediction(store, c, next)
		saveSession(sess, store, c, mw)

	case "accuracy":
		fmt.Printf("trailing accuracy %.0f%% over %d outcome(s)\n", sess.Accuracy()*100, len(sess.Outcomes()))

	case "reset":
		sess.Reset()
		if store != nil {
			if err := store.DeleteSnapshot(c.SessionID); err != nil {
				log.Error().Err(err).Msg("snapshot delete failed")
			}
		}
		fmt.Println("session reset")

	case "quit", "exit":
		return true

	default:
		fmt.Printf("unknown command %q\n", cmd)
	}
	return false
}

// invalidConfirm reports whether a Confirm error means the returned
// prediction is not real. A skipped parameter update still regenerates a
// genuine prediction; any other error rejected the outcome before the
// session was touched.
func invalidConfirm(err error) bool {
	return err != nil && !errors.Is(err, model.ErrMissingLearningContext)
}

func parseActual(args string) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(strings.TrimSpace(args), "%f", &v); err != nil {
		return 0, err
	}
	return v, nil
}

func printPrediction(p model.Prediction, variant string) {
	if variant == model.VariantCategory {
		fmt.Printf("next state %s (~%.2f), confidence %.0f%%\n", p.Label, p.RoughValue, p.Confidence)
	} else {
		fmt.Printf("spike=%v p=%.3f confidence %.0f%% (%s)\n", p.Spike, p.Probability, p.Confidence, p.Certainty)
	}
	if p.Explanation != "" {
		fmt.Printf("  %s\n", p.Explanation)
	}
}

func recordPrediction(store *storage.Store, c cfg.Settings, p model.Prediction) {
	if store == nil {
		return
	}
	record := storage.PredictionRecord{
		SessionID:   c.SessionID,
		Timestamp:   time.Now(),
		Label:       p.Label,
		Spike:       p.Spike,
		Probability: p.Probability,
		Confidence:  p.Confidence,
		RoughValue:  p.RoughValue,
	}
	if err := store.StorePrediction(record); err != nil {
		log.Error().Err(err).Msg("prediction record store failed")
	}
}

// waitForShutdown waits for shutdown signals, then persists the session
// before exiting. The lock keeps the save from interleaving with a
// command the loop is still executing.
func waitForShutdown(ctx context.Context, sess *session.Session, store *storage.Store,
	c cfg.Settings, mw *metrics.MetricsWrapper, mu *sync.Mutex,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	mu.Lock()
	saveSession(sess, store, c, mw)
	mu.Unlock()
	log.Info().Msg("shutting down")
}
