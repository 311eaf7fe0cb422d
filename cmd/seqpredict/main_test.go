package main

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"seqpredict/internal/cfg"
	"seqpredict/internal/metrics"
	"seqpredict/internal/model"
	"seqpredict/internal/session"
	"seqpredict/internal/storage"
)

func newTestSession(t *testing.T, variant string) *session.Session {
	t.Helper()
	sess, err := session.New(session.Config{Variant: variant}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("session init failed: %v", err)
	}
	return sess
}

func TestInvalidConfirm_RejectedOutcome(t *testing.T) {
	sess := newTestSession(t, model.VariantCategory)
	sess.Observe("2 3")
	sess.Predict()

	// Out of the rating range: Confirm returns a zero-value prediction
	// that must never be shown or persisted.
	_, err := sess.Confirm(9)
	if err == nil {
		t.Fatal("expected out-of-range outcome to be rejected")
	}
	if !invalidConfirm(err) {
		t.Error("rejected outcome must invalidate the returned prediction")
	}
}

func TestInvalidConfirm_SkippedUpdate(t *testing.T) {
	sess := newTestSession(t, model.VariantCategory)
	sess.Observe("2 3")

	// No pending prediction: the parameter update is skipped but a
	// genuine prediction is still regenerated and should be surfaced.
	next, err := sess.Confirm(2)
	if err == nil {
		t.Fatal("expected skipped-update error")
	}
	if invalidConfirm(err) {
		t.Error("skipped update should still surface the regenerated prediction")
	}
	if next.Label == "" {
		t.Error("regenerated prediction is missing its label")
	}
}

func TestShutdownSaveSerialized(t *testing.T) {
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage init failed: %v", err)
	}
	defer store.Close()

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	mw := metrics.NewWrapper(m)
	c := cfg.Settings{Variant: model.VariantCategory, SessionID: "serialized"}
	sess := newTestSession(t, model.VariantCategory)

	// Commands and the shutdown save share one lock; the race detector
	// flags any session access that escapes it.
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			mu.Lock()
			handleCommand("add 2 3 4", sess, store, c, mw)
			mu.Unlock()
		}
	}()
	for i := 0; i < 50; i++ {
		mu.Lock()
		saveSession(sess, store, c, mw)
		mu.Unlock()
	}
	<-done
}
