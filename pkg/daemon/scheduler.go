package daemon

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/apperr"
)

const (
	defaultLead      = 5 * time.Minute
	preCheckMaxTimes = 30
	preCheckInterval = 10 * time.Second
	// idleWait is how long the loop sleeps when nothing is scheduled.
	idleWait = 10000 * time.Hour
)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// ScheduleStatus is the public view of a Scheduler.
type ScheduleStatus struct {
	Expr    string    `json:"expr"`
	NextRun time.Time `json:"nextRun"`
	Running bool      `json:"running"`
}

// Scheduler runs Task on a cron schedule and announces every run Lead ahead
// of time, so the user can postpone or skip it.
type Scheduler struct {
	OnUpcoming func(runAt time.Time) // called Lead before running the task
	OnError    func(err error)       // called on precheck or task error
	Task       TaskFunc
	PreCheck   TaskFunc // must pass before Task runs; retried a few times
	Lead       time.Duration

	parser cron.Parser

	mu       sync.Mutex
	expr     string
	schedule cron.Schedule
	nextRun  time.Time
	running  bool

	controlCh chan controlMsg
	stopCh    chan struct{}
}

type controlKind int

const (
	ctrlRecalculate controlKind = iota // schedule changed
	ctrlPostpone                       // next run postponed
	ctrlSkip                           // next run skipped
)

type controlMsg struct {
	kind controlKind
	data any
}

func NewScheduler(task, preCheck TaskFunc, onUpcoming func(time.Time), onError func(error)) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		OnUpcoming: onUpcoming,
		OnError:    onError,
		Task:       task,
		PreCheck:   preCheck,
		Lead:       defaultLead,
		parser:     cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		controlCh:  make(chan controlMsg, 4),
		stopCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

// Schedule replaces the cron expression. An empty expression clears it.
func (s *Scheduler) Schedule(expr string) error {
	expr = strings.TrimSpace(expr)

	var sh cron.Schedule
	if expr != "" {
		var err error
		sh, err = s.parser.Parse(expr)
		if err != nil {
			return apperr.Validationf("invalid schedule %q: %v", expr, err)
		}
	}

	s.mu.Lock()
	s.expr = expr
	running := s.running
	if !running {
		s.setScheduleLocked(sh)
	}
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlRecalculate, sh)
	}
	return nil
}

func (s *Scheduler) setScheduleLocked(sh cron.Schedule) {
	s.schedule = sh
	if sh == nil {
		s.nextRun = time.Time{}
		return
	}
	s.nextRun = sh.Next(time.Now())
}

// Postpone delays the next run by d. It cannot be pushed past the run after it.
func (s *Scheduler) Postpone(d time.Duration) error {
	if d <= 0 {
		return apperr.Validationf("postpone duration must be positive")
	}

	s.mu.Lock()
	if s.schedule == nil || s.nextRun.IsZero() || !s.running {
		s.mu.Unlock()
		return apperr.Conflictf("no active schedule to postpone")
	}
	orig := s.nextRun
	following := s.schedule.Next(orig).Truncate(time.Second)
	s.mu.Unlock()

	pp := orig.Add(d).Truncate(time.Second)
	if pp.Compare(following) >= 0 {
		return apperr.Validationf("cannot postpone past the following run at %s", following.Format(time.DateTime))
	}

	s.mu.Lock()
	s.nextRun = pp
	s.mu.Unlock()
	s.trySendControl(ctrlPostpone, pp)
	return nil
}

// Skip skips the next run.
func (s *Scheduler) Skip() error {
	s.mu.Lock()
	if s.schedule == nil || s.nextRun.IsZero() {
		s.mu.Unlock()
		return apperr.Conflictf("no active schedule to skip")
	}
	s.nextRun = s.schedule.Next(s.nextRun)
	running := s.running
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlSkip, nil)
	}
	return nil
}

func (s *Scheduler) Status() ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScheduleStatus{Expr: s.expr, NextRun: s.nextRun, Running: s.running}
}

func (s *Scheduler) run() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		announced := false
		attempts := 0
		var precheckErr error

		schedule, nextRun := s.snapshot()
		wait := idleWait
		if schedule != nil && !nextRun.IsZero() {
			wait = max(time.Until(nextRun)-s.Lead, 0)
		}
		timer := time.NewTimer(wait)

	waiting:
		for {
			select {
			case <-timer.C:
				schedule, nextRun = s.snapshot()
				if schedule == nil || nextRun.IsZero() {
					break waiting
				}

				if !announced {
					logrus.Debugf("upcoming focus session at %s", nextRun.Format(time.DateTime))
					announced = true
					timer.Reset(max(time.Until(nextRun), 0))
					s.notifyUpcoming(nextRun)
					continue
				}

				logrus.Debugf("starting scheduled focus session at %s", nextRun.Format(time.DateTime))

				if s.PreCheck != nil {
					if err := s.PreCheck(); err != nil {
						if precheckErr == nil || err.Error() != precheckErr.Error() {
							precheckErr = err
							s.notifyError(fmt.Errorf("precheck failed: %w", err))
						}

						attempts++
						if attempts <= preCheckMaxTimes {
							logrus.Debugf("precheck failed (%d/%d): %v; retrying in %s", attempts, preCheckMaxTimes, err, preCheckInterval)
							timer.Reset(preCheckInterval)
							continue
						}

						s.advanceNextRun()
						break waiting
					}
				}

				go func() {
					if err := s.Task(); err != nil {
						s.notifyError(fmt.Errorf("task failed: %w", err))
					}
				}()
				s.advanceNextRun()
				break waiting
			case <-s.stopCh:
				timer.Stop()
				return
			case msg := <-s.controlCh:
				logrus.WithField("kind", msg.kind).Debug("scheduler received control msg")

				switch msg.kind {
				case ctrlRecalculate:
					sh, _ := msg.data.(cron.Schedule)
					s.mu.Lock()
					s.setScheduleLocked(sh)
					s.mu.Unlock()
				case ctrlPostpone:
					// Announce again before the postponed run.
					pp := msg.data.(time.Time)
					announced = false
					timer.Reset(max(time.Until(pp)-s.Lead, 0))
					continue
				case ctrlSkip:
				}
				timer.Stop()
				break waiting
			}
		}
	}
}

func (s *Scheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	s.nextRun = s.schedule.Next(s.nextRun)
}

func (s *Scheduler) notifyUpcoming(runAt time.Time) {
	if s.OnUpcoming == nil {
		return
	}
	go s.OnUpcoming(runAt)
}

func (s *Scheduler) notifyError(err error) {
	if s.OnError == nil {
		return
	}
	go s.OnError(err)
}

func (s *Scheduler) trySendControl(kind controlKind, data any) {
	select {
	case s.controlCh <- controlMsg{kind: kind, data: data}:
	default:
	}
}
