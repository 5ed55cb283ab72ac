package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/appdata"
	"github.com/charlie0129/tomato/pkg/timer"
)

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func phaseText(p appdata.Phase) string {
	switch p {
	case appdata.PhaseShortBreak:
		return color.New(color.Bold, color.FgGreen).Sprint(p.DisplayName())
	case appdata.PhaseLongBreak:
		return color.New(color.Bold, color.FgBlue).Sprint(p.DisplayName())
	default:
		return color.New(color.Bold, color.FgRed).Sprint(p.DisplayName())
	}
}

// goalText colors progress green once the goal is reached.
func goalText(completed, goal int) string {
	s := timer.GoalText(completed, goal)
	if goal > 0 && completed >= goal {
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	}
	return bold("%s", s)
}

func tagCounts(counts []timer.TagCount) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %d", c.Tag, c.Count)
	}
	return strings.Join(parts, ", ")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// rangeFlags are the --from and --to flags of the data commands. Empty means
// the daemon default, the current week.
type rangeFlags struct {
	from string
	to   string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.from, "from", "", "first date (YYYY-MM-DD), defaults to the start of this week")
	cmd.Flags().StringVar(&r.to, "to", "", "last date (YYYY-MM-DD), defaults to the end of this week")
}

// resolve fills missing ends with the current week.
func (r *rangeFlags) resolve(clock timer.Clock) appdata.DateRange {
	from, to := clock.CurrentWeekRange()
	out := appdata.DateRange{From: r.from, To: r.to}
	if out.From == "" {
		out.From = from
	}
	if out.To == "" {
		out.To = to
	}
	return out
}

func (r *rangeFlags) dateRange() appdata.DateRange {
	return r.resolve(timer.SystemClock{})
}

// bar renders n as a row of blocks scaled against max.
func bar(n, max, width int) string {
	if max <= 0 || n <= 0 {
		return ""
	}
	w := n * width / max
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}
