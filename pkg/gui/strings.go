package gui

const (
	startTooltip = `Start or resume the current phase.`
	pauseTooltip = `Pause the current phase. A paused focus session keeps the blacklist locked until it is reset or skipped.`
	skipTooltip  = `Skip to the next phase. Skipping a started focus session is recorded as an interruption when interruption recording is enabled.`
	resetTooltip = `Reset the current phase to its full length. Resetting a started focus session is recorded as an interruption when interruption recording is enabled.`
	quitTooltip  = `Quit the tray, but keep the tomato daemon running.

The timer keeps running in the daemon. You can still control it with the command line interface (tomato).`
)
