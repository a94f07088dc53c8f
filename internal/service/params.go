package service

import "time"

// SessionCommand is an operator session command forwarded to the machine.
type SessionCommand string

const (
	CmdStartMonitoring SessionCommand = "START_MONITORING"
	CmdStopMonitoring  SessionCommand = "STOP_MONITORING"
	CmdStartRecording  SessionCommand = "START_RECORDING"
	CmdStopRecording   SessionCommand = "STOP_RECORDING"
	CmdMarkMilestone   SessionCommand = "MARK_MILESTONE"
	CmdReset           SessionCommand = "RESET"
	CmdResync          SessionCommand = "RESYNC"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SESSION", "AUTOMATION", "ALARM", "CONTROL", "ERROR"
}
