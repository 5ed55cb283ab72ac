package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/archive"
	"github.com/charlie0129/tomato/pkg/config"
	"github.com/charlie0129/tomato/pkg/events"
	"github.com/charlie0129/tomato/pkg/notify"
	"github.com/charlie0129/tomato/pkg/processes"
	"github.com/charlie0129/tomato/pkg/store"
	"github.com/charlie0129/tomato/pkg/timer"
)

// Options locates everything the daemon reads and writes.
type Options struct {
	ConfigPath     string
	DataPath       string
	UnixSocketPath string
	AllowNonRoot   bool
}

func setupRoutes(s *server) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))

	router.GET("/snapshot", s.getSnapshot)
	router.POST("/timer/start", s.startTimer)
	router.POST("/timer/pause", s.pauseTimer)
	router.POST("/timer/reset", s.resetTimer)
	router.POST("/timer/skip", s.skipTimer)
	router.PUT("/tag", s.setTag)
	router.GET("/tags", s.getTags)
	router.POST("/tags", s.addTag)
	router.DELETE("/tags/:tag", s.removeTag)
	router.GET("/settings", s.getSettings)
	router.PUT("/settings", s.setSettings)
	router.PUT("/goals", s.setGoals)
	router.GET("/blacklist", s.getBlacklist)
	router.PUT("/blacklist", s.setBlacklist)
	router.GET("/history", s.getHistory)
	router.PUT("/history/remark", s.setRemark)
	router.GET("/history/export", s.exportHistory)
	router.POST("/interruptions", s.recordInterruption)
	router.GET("/interruptions/stats", s.getInterruptionStats)
	router.GET("/combo", s.getCombo)
	router.GET("/analysis", s.getAnalysis)
	router.GET("/stats/daily", s.getDailyTotals)
	router.GET("/schedule", s.getSchedule)
	router.PUT("/schedule", s.setSchedule)
	router.POST("/schedule/postpone", s.postponeSchedule)
	router.POST("/schedule/skip", s.skipSchedule)
	router.GET("/events", s.streamEvents)
	router.GET("/version", getVersion)

	return router
}

// newScheduler creates the scheduler that starts focus sessions. A session
// that is already running makes the precheck fail.
func newScheduler(st *State, hub *events.Hub, notifier timer.Notifier) *Scheduler {
	sched := NewScheduler(
		func() error {
			st.Start()
			return nil
		},
		func() error {
			if snap := st.Snapshot(); snap.IsRunning {
				return fmt.Errorf("timer is already running (%s)", snap.Phase.DisplayName())
			}
			return nil
		},
		func(runAt time.Time) {
			hub.Publish(events.ScheduleUpcoming, events.ScheduleUpcomingEvent{RunAt: runAt.Format(time.RFC3339)})
			body := fmt.Sprintf("A focus session starts at %s", runAt.Format("15:04"))
			if err := notifier.Notify("Scheduled focus", body); err != nil {
				logrus.WithError(err).Warn("failed to send schedule notification")
			}
		},
		func(err error) {
			logrus.WithError(err).Warn("scheduled focus session failed")
			hub.Publish(events.ScheduleError, events.ScheduleErrorEvent{Message: err.Error()})
		},
	)
	return sched
}

func applySchedule(sched *Scheduler, conf config.Config) {
	sched.Lead = time.Duration(conf.ScheduleLeadMinutes()) * time.Minute
	if err := sched.Schedule(conf.Schedule()); err != nil {
		logrus.WithError(err).Error("failed to apply focus schedule")
	}
}

func openArchive(conf config.Config, dataPath string) *archive.Archive {
	path := conf.ArchivePath()
	if path == "" {
		path = filepath.Join(filepath.Dir(dataPath), "archive.db")
	}
	a, err := archive.New(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Error("failed to open analysis archive, analysis is disabled")
		return nil
	}
	return a
}

func Run(opts Options) error {
	conf, err := config.NewFile(opts.ConfigPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	hub := events.NewHub()
	notifier := notify.Multi{notify.Log{}, notify.Hub{Hub: hub}, notify.Async{N: notify.NewDesktop(conf)}}

	arc := openArchive(conf, opts.DataPath)
	st, err := NewState(StateConfig{
		Store:      store.NewFile(opts.DataPath),
		Archive:    arc,
		Hub:        hub,
		Notifier:   notifier,
		Terminator: processes.NewSignal(),
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to load data from %s", opts.DataPath)
	}

	sched := newScheduler(st, hub, notifier)
	applySchedule(sched, conf)
	sched.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			applySchedule(sched, conf)
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler:           setupRoutes(&server{st: st, sched: sched, conf: conf, hub: hub}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// A stale socket from a crashed daemon would make Listen fail.
	if err := os.Remove(opts.UnixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("failed to remove stale socket %s: %v", opts.UnixSocketPath, err)
	}
	l, err := net.Listen("unix", opts.UnixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || opts.AllowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", opts.UnixSocketPath)
		err = os.Chmod(opts.UnixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go tickLoop(ctx, st)
	go guardLoop(ctx, st, conf)

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	cancel()
	sched.Stop()

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	if st.RecordQuit() {
		logrus.Info("recorded unfinished focus session as a quit interruption")
	}
	if err := st.Save(); err != nil {
		logrus.Errorf("failed to save data before exiting: %v", err)
	}

	if arc != nil {
		logrus.Info("closing analysis archive")
		if err := arc.Close(); err != nil {
			logrus.Errorf("failed to close archive: %v", err)
		}
	}

	logrus.Info("exiting")
	return nil
}
