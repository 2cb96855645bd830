package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{"Morning", "06:00", ScheduleTime{Hour: 6, Minute: 0}, false},
		{"Midnight", "00:00", ScheduleTime{Hour: 0, Minute: 0}, false},
		{"End of day", "23:59", ScheduleTime{Hour: 23, Minute: 59}, false},
		{"Hour too large", "24:00", ScheduleTime{}, true},
		{"Minute too large", "12:60", ScheduleTime{}, true},
		{"Negative hour", "-1:30", ScheduleTime{}, true},
		{"Not a time", "noon", ScheduleTime{}, true},
		{"Empty", "", ScheduleTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScheduleTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseScheduleTime(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScheduleTimeString(t *testing.T) {
	st := ScheduleTime{Hour: 6, Minute: 5}
	if got := st.String(); got != "06:05" {
		t.Errorf("String() = %q, want 06:05", got)
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("Rejects bad time", func(t *testing.T) {
		_, err := New(Config{ScheduleTimes: []string{"25:00"}, WorkerCount: 1, QueueSize: 1})
		if err == nil {
			t.Fatal("New() expected error for invalid schedule time")
		}
	})

	t.Run("Requires at least one time", func(t *testing.T) {
		_, err := New(Config{WorkerCount: 1, QueueSize: 1})
		if err == nil {
			t.Fatal("New() expected error for empty schedule")
		}
	})
}

func TestShouldRun(t *testing.T) {
	s, err := New(Config{ScheduleTimes: []string{"06:00", "18:30"}, WorkerCount: 1, QueueSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	at := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 15, hour, minute, 0, 0, time.UTC)
	}

	if s.shouldRun(at(5, 59)) {
		t.Error("shouldRun fired outside the schedule")
	}
	if !s.shouldRun(at(6, 0)) {
		t.Error("shouldRun did not fire at a scheduled time")
	}
	// Second tick inside the same minute is deduplicated.
	if s.shouldRun(at(6, 0)) {
		t.Error("shouldRun fired twice in the same minute")
	}
	if !s.shouldRun(at(18, 30)) {
		t.Error("shouldRun did not fire at the second scheduled time")
	}
	// Same clock time the next day runs again.
	next := time.Date(2026, 3, 16, 6, 0, 0, 0, time.UTC)
	if !s.shouldRun(next) {
		t.Error("shouldRun did not fire on the following day")
	}
}

type fakeJob struct {
	id      string
	execute func(ctx context.Context) error
}

func (j *fakeJob) Execute(ctx context.Context) error {
	if j.execute != nil {
		return j.execute(ctx)
	}
	return nil
}
func (j *fakeJob) InstitutionID() string { return j.id }
func (j *fakeJob) Description() string   { return "fake job " + j.id }

func TestWorkerPoolProcessesJobs(t *testing.T) {
	pool := NewWorkerPool(2, 0, 10)
	pool.Start()

	var processed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		job := &fakeJob{
			id: fmt.Sprintf("%d", i),
			execute: func(ctx context.Context) error {
				defer wg.Done()
				processed.Add(1)
				return nil
			},
		}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	wg.Wait()
	pool.ShutdownWithTimeout(2 * time.Second)

	if got := processed.Load(); got != 5 {
		t.Errorf("processed = %d, want 5", got)
	}
}

func TestWorkerPoolQueueFull(t *testing.T) {
	// No workers started, so nothing drains the queue.
	pool := NewWorkerPool(0, 0, 1)

	if err := pool.Submit(&fakeJob{id: "1"}); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if err := pool.Submit(&fakeJob{id: "2"}); err == nil {
		t.Fatal("second Submit() expected queue-full error")
	}
}

func TestStartupBatch(t *testing.T) {
	var executed atomic.Int64
	done := make(chan struct{})

	s, err := New(Config{
		ScheduleTimes: []string{"06:00"},
		WorkerCount:   1,
		QueueSize:     10,
		RunOnStartup:  true,
		JobProvider: func(ctx context.Context) ([]Job, error) {
			return []Job{&fakeJob{
				id: "1",
				execute: func(ctx context.Context) error {
					executed.Add(1)
					close(done)
					return nil
				},
			}}, nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup batch was not dispatched")
	}
	s.Shutdown(2 * time.Second)

	if executed.Load() != 1 {
		t.Errorf("executed jobs = %d, want 1", executed.Load())
	}
}

func TestNextScheduledTime(t *testing.T) {
	s, err := New(Config{ScheduleTimes: []string{"00:00"}, WorkerCount: 1, QueueSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	next := s.NextScheduledTime()
	if !next.After(time.Now()) {
		t.Errorf("NextScheduledTime() = %v, want a future time", next)
	}
	if next.Hour() != 0 || next.Minute() != 0 {
		t.Errorf("NextScheduledTime() = %v, want midnight", next)
	}
}
