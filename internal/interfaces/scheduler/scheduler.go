package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// ScheduleTime is one wall-clock trigger point in the daily sync plan.
type ScheduleTime struct {
	Hour   int
	Minute int
}

// String renders the time as HH:MM.
func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses an HH:MM wall-clock time.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	if hour < 0 || hour > 23 {
		return ScheduleTime{}, fmt.Errorf("invalid hour: %d (must be 0-23)", hour)
	}
	if minute < 0 || minute > 59 {
		return ScheduleTime{}, fmt.Errorf("invalid minute: %d (must be 0-59)", minute)
	}
	return ScheduleTime{Hour: hour, Minute: minute}, nil
}

// Scheduler fires institution sync batches at fixed times of day. Jobs come
// from the provider at fire time, so institutions linked after startup join
// the next batch without a restart.
type Scheduler struct {
	pool     *WorkerPool
	times    []ScheduleTime
	onStart  bool
	provider func(context.Context) ([]Job, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	lastFireKey string
}

// Config holds the sync schedule and worker pool sizing.
type Config struct {
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
	JobProvider   func(context.Context) ([]Job, error)
}

// New parses the schedule and builds the scheduler and its worker pool.
func New(config Config) (*Scheduler, error) {
	times := make([]ScheduleTime, 0, len(config.ScheduleTimes))
	for _, raw := range config.ScheduleTimes {
		st, err := ParseScheduleTime(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", raw, err)
		}
		times = append(times, st)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("at least one schedule time is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	log.Printf("Sync schedule %v: %d workers, %v between institutions", config.ScheduleTimes, config.WorkerCount, config.JobDelay)

	return &Scheduler{
		pool:     NewWorkerPool(config.WorkerCount, config.JobDelay, config.QueueSize),
		times:    times,
		onStart:  config.RunOnStartup,
		provider: config.JobProvider,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start launches the worker pool and the tick loop. With RunOnStartup set,
// one batch is dispatched immediately, which primes an empty ledger on first
// boot.
func (s *Scheduler) Start() {
	s.pool.Start()

	if s.onStart {
		log.Println("Scheduler: dispatching startup sync batch")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.dispatch()
		}()
	}

	s.wg.Add(1)
	go s.loop()

	log.Println("Scheduler started")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				log.Printf("Scheduler: firing %s sync batch", now.Format("15:04"))
				s.dispatch()
			}
		}
	}
}

// shouldRun reports whether now matches a schedule entry. The minute key
// dedupes repeat ticks inside the same minute.
func (s *Scheduler) shouldRun(now time.Time) bool {
	key := now.Format("2006-01-02 15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastFireKey == key {
		return false
	}
	for _, st := range s.times {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastFireKey = key
			return true
		}
	}
	return false
}

// dispatch asks the provider for the current institution jobs and queues
// them on the worker pool.
func (s *Scheduler) dispatch() {
	if s.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.provider(ctx)
	if err != nil {
		log.Printf("Scheduler: failed to build sync jobs: %v", err)
		return
	}
	if len(jobs) == 0 {
		log.Println("Scheduler: no institutions to sync")
		return
	}

	s.pool.SubmitBatch(jobs)
}

// Shutdown stops the tick loop, then drains the worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Println("Scheduler: timeout waiting for tick loop to stop")
	}

	s.pool.ShutdownWithTimeout(timeout)
	log.Println("Scheduler stopped")
}

// NextScheduledTime returns the next trigger, today or tomorrow. Schedule
// times are configured in ascending order.
func (s *Scheduler) NextScheduledTime() time.Time {
	now := time.Now()
	for _, st := range s.times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), st.Hour, st.Minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
	}

	first := s.times[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.Hour, first.Minute, 0, 0, now.Location())
}

// ScheduleTimes returns the parsed schedule for status reporting.
func (s *Scheduler) ScheduleTimes() []ScheduleTime {
	return s.times
}
