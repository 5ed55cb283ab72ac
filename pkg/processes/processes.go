// Package processes terminates blacklisted programs during focus sessions.
package processes

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

// KillItem is the outcome for one process name.
type KillItem struct {
	Name          string `json:"name"`
	PIDs          []int  `json:"pids"`
	Killed        int    `json:"killed"`
	Failed        int    `json:"failed"`
	RequiresAdmin bool   `json:"requiresAdmin"`
}

// KillSummary is the outcome of one Terminate call.
type KillSummary struct {
	Items         []KillItem `json:"items"`
	RequiresAdmin bool       `json:"requiresAdmin"`
}

// Killed is the total number of processes terminated.
func (s KillSummary) Killed() int {
	n := 0
	for _, it := range s.Items {
		n += it.Killed
	}
	return n
}

// Terminator ends every running process whose name matches exactly.
// It is best effort: failures are reported in the summary, never returned.
type Terminator interface {
	Terminate(ctx context.Context, names []string) KillSummary
}

// Noop terminates nothing.
type Noop struct{}

func (Noop) Terminate(_ context.Context, names []string) KillSummary {
	s := KillSummary{Items: make([]KillItem, 0, len(names))}
	for _, n := range names {
		s.Items = append(s.Items, KillItem{Name: n, PIDs: []int{}})
	}
	return s
}

// Signal finds processes by name and asks them to terminate.
type Signal struct {
	// List returns the pids of processes named name. Defaults to a scan of
	// the process table.
	List func(ctx context.Context, name string) ([]int, error)
	// Kill terminates one pid. Defaults to SIGTERM, TerminateProcess on Windows.
	Kill func(ctx context.Context, pid int) error
}

// NewSignal returns a Signal backed by the process table.
func NewSignal() *Signal {
	return &Signal{List: listByName, Kill: terminate}
}

func (s *Signal) Terminate(ctx context.Context, names []string) KillSummary {
	list, kill := s.List, s.Kill
	if list == nil {
		list = listByName
	}
	if kill == nil {
		kill = terminate
	}

	self := os.Getpid()
	summary := KillSummary{Items: make([]KillItem, 0, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		item := KillItem{Name: name, PIDs: []int{}}

		pids, err := list(ctx, name)
		if err != nil {
			logrus.WithError(err).WithField("name", name).Warn("failed to list processes")
			item.Failed++
			summary.Items = append(summary.Items, item)
			continue
		}

		for _, pid := range pids {
			if pid == self {
				continue
			}
			item.PIDs = append(item.PIDs, pid)
			if err := kill(ctx, pid); err != nil {
				item.Failed++
				if isPermission(err) {
					item.RequiresAdmin = true
					summary.RequiresAdmin = true
				}
				logrus.WithError(err).WithFields(logrus.Fields{"name": name, "pid": pid}).Debug("failed to terminate process")
				continue
			}
			item.Killed++
		}

		if item.Killed > 0 {
			logrus.WithFields(logrus.Fields{"name": name, "killed": item.Killed}).Info("terminated blacklisted process")
		}
		summary.Items = append(summary.Items, item)
	}
	return summary
}

// matchName compares a process name with a blacklist name. Case and a
// trailing .exe are ignored so one blacklist works across platforms.
func matchName(procName, name string) bool {
	trim := func(s string) string {
		s = strings.TrimSpace(s)
		if len(s) > 4 && strings.EqualFold(s[len(s)-4:], ".exe") {
			s = s[:len(s)-4]
		}
		return s
	}
	return strings.EqualFold(trim(procName), trim(name))
}

func listByName(ctx context.Context, name string) ([]int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list processes")
	}
	var pids []int
	for _, p := range procs {
		procName, err := p.NameWithContext(ctx)
		if err != nil {
			// Exited or not readable by us.
			continue
		}
		if matchName(procName, name) {
			pids = append(pids, int(p.Pid))
		}
	}
	return pids, nil
}

func terminate(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open process %d", pid)
	}
	return p.TerminateWithContext(ctx)
}

func isPermission(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM)
}
