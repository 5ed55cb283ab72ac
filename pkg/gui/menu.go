package gui

import (
	"context"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/tomato/pkg/client"
	"github.com/charlie0129/tomato/pkg/timer"
)

const (
	refreshInterval = time.Second
	// tags change rarely, so they are reloaded every tagRefreshTicks refreshes.
	tagRefreshTicks = 30
)

// menuController owns the tray items and keeps them in sync with the daemon.
type menuController struct {
	api *client.Client

	statusItem *systray.MenuItem
	tagMenu    *systray.MenuItem
	tagItems   []*systray.MenuItem
	todayItem  *systray.MenuItem
	weekItem   *systray.MenuItem

	startItem *systray.MenuItem
	pauseItem *systray.MenuItem
	skipItem  *systray.MenuItem
	resetItem *systray.MenuItem
	quitItem  *systray.MenuItem

	mu       sync.Mutex
	tagNames []string
	view     menuView

	// eventCancel cancels the SSE event subscription goroutine
	eventCancel context.CancelFunc
}

func newMenuController(api *client.Client) *menuController {
	return &menuController{api: api}
}

func (c *menuController) onReady() {
	systray.SetTitle("🍅 Loading...")
	systray.SetTooltip("tomato")

	c.statusItem = systray.AddMenuItem("Connecting...", "Current phase")
	c.statusItem.Disable()
	c.tagMenu = systray.AddMenuItem("Tag: -", "Tag of the focus sessions")
	for i := 0; i < maxTagItems; i++ {
		it := c.tagMenu.AddSubMenuItem("", "")
		it.Hide()
		c.tagItems = append(c.tagItems, it)
	}
	c.todayItem = systray.AddMenuItem("Today: -", "Completed focus sessions today")
	c.todayItem.Disable()
	c.weekItem = systray.AddMenuItem("This week: -", "Completed focus sessions this week")
	c.weekItem.Disable()

	systray.AddSeparator()
	c.startItem = systray.AddMenuItem("Start", startTooltip)
	c.pauseItem = systray.AddMenuItem("Pause", pauseTooltip)
	c.skipItem = systray.AddMenuItem("Skip", skipTooltip)
	c.resetItem = systray.AddMenuItem("Reset", resetTooltip)

	systray.AddSeparator()
	c.quitItem = systray.AddMenuItem("Quit", quitTooltip)

	ctx, cancel := context.WithCancel(context.Background())
	c.eventCancel = cancel

	for i, it := range c.tagItems {
		go c.watchTagItem(ctx, i, it)
	}
	go c.handleClicks(ctx)
	go c.pollLoop(ctx)
	go c.eventLoop(ctx)
}

func (c *menuController) onExit() {
	if c.eventCancel != nil {
		logrus.Debug("Cancelling event subscription")
		c.eventCancel()
	}
	logrus.Info("tray exiting")
}

func (c *menuController) handleClicks(ctx context.Context) {
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-c.startItem.ClickedCh:
			_, err = c.api.Start()
		case <-c.pauseItem.ClickedCh:
			_, err = c.api.Pause()
		case <-c.skipItem.ClickedCh:
			_, err = c.api.Skip("")
		case <-c.resetItem.ClickedCh:
			_, err = c.api.Reset("")
		case <-c.quitItem.ClickedCh:
			logrus.Info("Quitting tray")
			systray.Quit()
			return
		}
		if err != nil {
			logrus.WithError(err).Error("Failed to control timer")
		}
		c.refresh()
	}
}

func (c *menuController) watchTagItem(ctx context.Context, i int, it *systray.MenuItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-it.ClickedCh:
		}
		c.mu.Lock()
		var tag string
		if i < len(c.tagNames) {
			tag = c.tagNames[i]
		}
		c.mu.Unlock()
		if tag == "" {
			continue
		}
		if _, err := c.api.SetTag(tag); err != nil {
			logrus.WithError(err).WithField("tag", tag).Error("Failed to set tag")
		}
		c.refresh()
	}
}

func (c *menuController) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	c.refreshTags()
	c.refresh()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if n%tagRefreshTicks == 0 {
			c.refreshTags()
		}
		c.refresh()
	}
}

// eventLoop applies snapshots pushed by the daemon so the title does not lag
// behind the poll interval. It reconnects until ctx is done.
func (c *menuController) eventLoop(ctx context.Context) {
	for ctx.Err() == nil {
		evCh, err := c.api.SubscribeEvents(ctx)
		if err != nil {
			logrus.WithError(err).Debug("failed to subscribe to events")
		} else {
			for ev := range evCh {
				c.handleEvent(ev)
			}
		}
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *menuController) refresh() {
	snap, err := c.api.GetSnapshot()
	if err != nil {
		logrus.WithError(err).Debug("failed to get snapshot")
		c.apply(offlineView(err))
		return
	}
	c.applySnapshot(snap)
}

func (c *menuController) applySnapshot(snap *timer.Snapshot) {
	c.apply(buildView(snap))
}

func (c *menuController) refreshTags() {
	tags, err := c.api.GetTags()
	if err != nil {
		logrus.WithError(err).Debug("failed to get tags")
		return
	}
	c.mu.Lock()
	c.tagNames = tagSlots(tags, c.view.CurrentTag)
	names := append([]string(nil), c.tagNames...)
	current := c.view.CurrentTag
	c.mu.Unlock()

	for i, it := range c.tagItems {
		if i >= len(names) {
			it.Hide()
			continue
		}
		it.SetTitle(names[i])
		it.Show()
		setChecked(it, names[i] == current)
	}
}

func (c *menuController) apply(v menuView) {
	c.mu.Lock()
	prev := c.view
	c.view = v
	names := append([]string(nil), c.tagNames...)
	c.mu.Unlock()

	systray.SetTitle(v.Title)
	systray.SetTooltip(v.Tooltip)
	c.statusItem.SetTitle(v.Status)
	c.tagMenu.SetTitle(v.Tag)
	c.todayItem.SetTitle(v.Today)
	c.weekItem.SetTitle(v.Week)

	setEnabled(c.tagMenu, v.Online)
	setEnabled(c.startItem, v.Online && v.CanStart)
	setEnabled(c.pauseItem, v.Online && v.CanPause)
	setEnabled(c.skipItem, v.Online)
	setEnabled(c.resetItem, v.Online && v.CanReset)

	if prev.CurrentTag != v.CurrentTag {
		for i, it := range c.tagItems {
			if i < len(names) {
				setChecked(it, names[i] == v.CurrentTag)
			}
		}
	}
}

func setEnabled(it *systray.MenuItem, enabled bool) {
	if enabled {
		it.Enable()
	} else {
		it.Disable()
	}
}

func setChecked(it *systray.MenuItem, checked bool) {
	if checked {
		it.Check()
	} else {
		it.Uncheck()
	}
}
