package trigger

// Direction is which way a signal must traverse a threshold.
type Direction string

const (
	Rising  Direction = "RISING"
	Falling Direction = "FALLING"
	Both    Direction = "BOTH"
)

// ConditionKind discriminates time-deadline conditions from signal-threshold
// ones.
type ConditionKind string

const (
	ConditionTime      ConditionKind = "TIME"
	ConditionThreshold ConditionKind = "THRESHOLD"
)

// Condition is when a trigger should fire: either an elapsed-time deadline
// or a signal crossing a threshold in a direction.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	DeadlineMS int64 `json:"deadline_ms,omitempty"`

	Signal    Signal    `json:"signal,omitempty"`
	Channel   string    `json:"channel,omitempty"` // auxiliary channel name when Signal == SignalExtra
	Threshold float64   `json:"threshold,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// AtTime builds a time condition firing once elapsed time reaches ms.
func AtTime(ms int64) Condition {
	return Condition{Kind: ConditionTime, DeadlineMS: ms}
}

// AtThreshold builds a threshold condition.
func AtThreshold(sig Signal, channel string, threshold float64, dir Direction) Condition {
	return Condition{Kind: ConditionThreshold, Signal: sig, Channel: channel, Threshold: threshold, Direction: dir}
}

// crossed reports whether a signal moving prev -> cur traversed the
// threshold. The strict-previous / inclusive-current asymmetry fires exactly
// once at the sample where the threshold is reached, and never again while
// the signal sits exactly on it.
func crossed(prev, cur, threshold float64, dir Direction) bool {
	switch dir {
	case Rising:
		return prev < threshold && cur >= threshold
	case Falling:
		return prev > threshold && cur <= threshold
	case Both:
		return (prev < threshold && cur >= threshold) || (prev > threshold && cur <= threshold)
	default:
		return false
	}
}

// met evaluates the condition against elapsed time and the adjacent
// snapshots. The second return is false when the condition cannot be
// resolved (unknown auxiliary channel) and the trigger must be skipped for
// this pass.
func (c Condition) met(elapsedMS int64, cur, prev Snapshot) (bool, bool) {
	switch c.Kind {
	case ConditionTime:
		return elapsedMS >= c.DeadlineMS, true
	case ConditionThreshold:
		p, okPrev := prev.value(c.Signal, c.Channel)
		v, okCur := cur.value(c.Signal, c.Channel)
		if !okPrev || !okCur {
			return false, false
		}
		return crossed(p, v, c.Threshold, c.Direction), true
	default:
		return false, false
	}
}
