package daemon_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"liner/internal/catalog"
	"liner/internal/daemon"
	"liner/internal/gateway"
	"liner/internal/logging"
	"liner/internal/publish"
	"liner/internal/testsupport"
)

type stubGenerator struct{}

func (stubGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return "one\ntwo\nthree", nil
}

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gw := gateway.New(stubGenerator{}, gateway.Options{FailureThreshold: 3, Cooldown: time.Minute})
	runner := publish.NewRunner(cfg, store, gw, nil, logging.NewNop(), publish.Options{
		Rand: rand.New(rand.NewSource(1)),
	})
	d, err := daemon.New(cfg, store, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status, err := d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	d.Stop()

	status, err = d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status after stop: %v", err)
	}
	if status.Running {
		t.Fatal("expected stopped daemon")
	}
}

func TestDaemonRejectsSecondStart(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected error starting daemon twice")
	}
}

func TestDaemonRunNowRecordsManualTrigger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedCollectionEntries(t, store, 2)
	gw := gateway.New(stubGenerator{}, gateway.Options{FailureThreshold: 3, Cooldown: time.Minute})
	runner := publish.NewRunner(cfg, store, gw, nil, logging.NewNop(), publish.Options{
		Rand: rand.New(rand.NewSource(1)),
	})
	d, err := daemon.New(cfg, store, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	run, err := d.RunNow(context.Background(), catalog.RunKindAlbumOfDay)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if run.Trigger != catalog.TriggerManual {
		t.Fatalf("expected manual trigger, got %q", run.Trigger)
	}
	if run.Kind != catalog.RunKindAlbumOfDay {
		t.Fatalf("unexpected kind: %q", run.Kind)
	}

	status, err := d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.LastRun == nil || status.LastRun.UID != run.UID {
		t.Fatalf("status missing last run: %+v", status.LastRun)
	}
	if status.EntriesByProv[catalog.ProvenanceCollection] != 2 {
		t.Fatalf("unexpected entry counts: %v", status.EntriesByProv)
	}
}
