package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/baing/baing/internal/enrichment"
	"github.com/baing/baing/internal/scheduler"
	"github.com/baing/baing/internal/testutil"
)

type fakeProvider struct {
	err   error
	calls chan struct{}
}

func (p *fakeProvider) ProviderName() string { return "mock" }

func (p *fakeProvider) Test(context.Context) error {
	p.calls <- struct{}{}
	return p.err
}

type countingPruner struct{ idle time.Duration }

func (p *countingPruner) Prune(idle time.Duration) int {
	p.idle = idle
	return 2
}

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(nil, testutil.NopLogger())
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestProviderHealth_RecordsFailure(t *testing.T) {
	s := newScheduler(t)
	p := &fakeProvider{err: errors.New("connection refused"), calls: make(chan struct{}, 1)}
	if err := RegisterProviderHealthTask(s, "*/15 * * * *", p, testutil.NopLogger()); err != nil {
		t.Fatalf("RegisterProviderHealthTask() error = %v", err)
	}
	s.Start()

	if err := s.RunNow(ProviderHealthTaskID); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	<-p.calls

	deadline := time.Now().Add(2 * time.Second)
	var info *scheduler.TaskInfo
	for {
		got, err := s.GetTask(ProviderHealthTaskID)
		if err == nil && !got.Running && got.LastError != "" {
			info = got
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("provider health run was not recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !strings.Contains(info.LastError, "connection refused") {
		t.Errorf("LastError = %q, want it to mention the provider failure", info.LastError)
	}
	if info.NextRun == nil {
		t.Error("NextRun = nil, want the next cron time")
	}
}

func TestHousekeeping_Run(t *testing.T) {
	cache := enrichment.NewMemoryCache(time.Nanosecond, 10)
	cache.Set(context.Background(), "k", []byte("v"))
	time.Sleep(time.Millisecond)

	users := &countingPruner{}
	h := NewHousekeeping(cache, users, nil, testutil.NopLogger())

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := cache.Len(); n != 0 {
		t.Errorf("cache.Len() = %d, want 0", n)
	}
	if users.idle != limiterIdle {
		t.Errorf("Prune idle = %v, want %v", users.idle, limiterIdle)
	}
}

func TestHousekeeping_DuplicateRegistration(t *testing.T) {
	s := newScheduler(t)
	h := NewHousekeeping(nil, nil, nil, testutil.NopLogger())
	if err := h.Register(s, "0 * * * *"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := h.Register(s, "0 * * * *"); !errors.Is(err, scheduler.ErrDuplicate) {
		t.Errorf("second Register() error = %v, want ErrDuplicate", err)
	}
	if n := len(s.ListTasks()); n != 1 {
		t.Errorf("ListTasks() has %d tasks, want 1", n)
	}
}
