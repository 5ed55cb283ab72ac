package daemon

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/apperr"
	"github.com/charlie0129/tomato/pkg/config"
	"github.com/charlie0129/tomato/pkg/events"
	"github.com/charlie0129/tomato/pkg/export"
	"github.com/charlie0129/tomato/pkg/interruption"
	"github.com/charlie0129/tomato/pkg/version"
)

const sseKeepAlive = 15 * time.Second

// server holds what the HTTP handlers need.
type server struct {
	st    *State
	sched *Scheduler
	conf  config.Config
	hub   *events.Hub
}

// ReasonRequest is the optional body of reset and skip.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// GoalsRequest is the body of PUT /goals.
type GoalsRequest struct {
	DailyGoal  int `json:"dailyGoal"`
	WeeklyGoal int `json:"weeklyGoal"`
}

// RemarkRequest is the body of PUT /history/remark.
type RemarkRequest struct {
	Date   string `json:"date"`
	Index  int    `json:"index"`
	Remark string `json:"remark"`
}

// InterruptionRequest is the body of POST /interruptions.
type InterruptionRequest struct {
	Reason string `json:"reason"`
	Type   string `json:"type"`
}

// PostponeRequest is the body of POST /schedule/postpone.
type PostponeRequest struct {
	Minutes int `json:"minutes"`
}

func (s *server) getSnapshot(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.st.Snapshot())
}

func (s *server) startTimer(c *gin.Context) {
	c.IndentedJSON(http.StatusCreated, s.st.Start())
}

func (s *server) pauseTimer(c *gin.Context) {
	c.IndentedJSON(http.StatusCreated, s.st.Pause())
}

func (s *server) resetTimer(c *gin.Context) {
	var req ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	snap, err := s.st.Reset(req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, snap)
}

func (s *server) skipTimer(c *gin.Context) {
	var req ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	snap, err := s.st.Skip(req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, snap)
}

func (s *server) setTag(c *gin.Context) {
	var tag string
	if !bindJSON(c, &tag) {
		return
	}
	snap, err := s.st.SetTag(tag)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, snap)
}

func (s *server) getTags(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.st.Tags())
}

func (s *server) addTag(c *gin.Context) {
	var tag string
	if !bindJSON(c, &tag) {
		return
	}
	tags, err := s.st.AddTag(tag)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, tags)
}

func (s *server) removeTag(c *gin.Context) {
	tags, err := s.st.RemoveTag(c.Param("tag"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, tags)
}

func (s *server) getSettings(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.st.Settings())
}

func (s *server) setSettings(c *gin.Context) {
	var settings appdata.Settings
	if !bindJSON(c, &settings) {
		return
	}
	updated, err := s.st.UpdateSettings(settings)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, updated)
}

func (s *server) setGoals(c *gin.Context) {
	var req GoalsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := s.st.SetGoals(req.DailyGoal, req.WeeklyGoal)
	if err != nil {
		abortWithError(c, err)
		return
	}
	logrus.Infof("set goals to %d daily, %d weekly", req.DailyGoal, req.WeeklyGoal)
	c.IndentedJSON(http.StatusCreated, settings)
}

func (s *server) getBlacklist(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.st.Blacklist())
}

func (s *server) setBlacklist(c *gin.Context) {
	var items []appdata.BlacklistItem
	if !bindJSON(c, &items) {
		return
	}
	updated, err := s.st.SetBlacklist(items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, updated)
}

func (s *server) getHistory(c *gin.Context) {
	days, err := s.st.History(s.queryRange(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, days)
}

func (s *server) setRemark(c *gin.Context) {
	var req RemarkRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := s.st.SetRemark(req.Date, req.Index, req.Remark)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, rec)
}

func (s *server) exportHistory(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	fields, err := export.ParseFields(c.Query("fields"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	r := s.queryRange(c)
	days, err := s.st.History(r)
	if err != nil {
		abortWithError(c, err)
		return
	}

	buf := &bytes.Buffer{}
	opts := export.Options{
		Format:     format,
		Range:      r,
		Fields:     fields,
		ExportDate: s.st.now().Format(appdata.DateLayout),
	}
	if err := export.Write(buf, days, opts); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(r, format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *server) recordInterruption(c *gin.Context) {
	var req InterruptionRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, err := interruption.ParseType(req.Type)
	if err != nil {
		abortWithError(c, err)
		return
	}
	rec, err := s.st.RecordInterruption(typ, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, rec)
}

func (s *server) getInterruptionStats(c *gin.Context) {
	stats, err := s.st.InterruptionStats(s.queryRange(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}

func (s *server) getCombo(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.st.Combo())
}

func (s *server) getAnalysis(c *gin.Context) {
	a, err := s.st.Analysis(s.queryRange(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, a)
}

func (s *server) getDailyTotals(c *gin.Context) {
	totals, err := s.st.DailyTotals(s.queryRange(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, totals)
}

func (s *server) getSchedule(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.sched.Status())
}

func (s *server) setSchedule(c *gin.Context) {
	var expr string
	if !bindJSON(c, &expr) {
		return
	}
	if err := s.sched.Schedule(expr); err != nil {
		abortWithError(c, err)
		return
	}

	s.conf.SetSchedule(expr)
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, err)
		return
	}

	logrus.Infof("set focus schedule to %q", expr)
	c.IndentedJSON(http.StatusCreated, s.sched.Status())
}

func (s *server) postponeSchedule(c *gin.Context) {
	var req PostponeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.sched.Postpone(time.Duration(req.Minutes) * time.Minute); err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, s.sched.Status())
}

func (s *server) skipSchedule(c *gin.Context) {
	if err := s.sched.Skip(); err != nil {
		abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, s.sched.Status())
}

// streamEvents relays hub events as server-sent events until the client
// goes away.
func (s *server) streamEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Id: ev.ID, Event: ev.Name, Data: ev.Data})
			return !c.IsAborted()
		case <-keepAlive.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// queryRange reads from and to. Missing ends default to the current week.
func (s *server) queryRange(c *gin.Context) appdata.DateRange {
	from, to := s.st.clock.CurrentWeekRange()
	return appdata.DateRange{
		From: c.DefaultQuery("from", from),
		To:   c.DefaultQuery("to", to),
	}
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, apperr.Validationf("invalid request body: %v", err))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, v)
}
