package kartavya

import (
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
)

func matches(t Trigger, ctx TriggerContext) bool {
	switch t.Kind {
	case TriggerCron:
		return cronMatches(t.CronSpec, ctx.Now)
	case TriggerEvent:
		_, ok := ctx.Events[t.EventName]
		return ok
	case TriggerThreshold:
		value, ok := ctx.Metrics[t.MetricName]
		if !ok {
			return false
		}
		return compare(value, t.Op, t.ThresholdValue)
	case TriggerPattern:
		re, err := regexp.Compile(t.PatternRegex)
		if err != nil {
			return false
		}
		for _, p := range ctx.Patterns {
			if re.MatchString(p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compare(value float64, op ThresholdOp, threshold float64) bool {
	switch op {
	case OpLess:
		return value < threshold
	case OpLessOrEqual:
		return value <= threshold
	case OpGreater:
		return value > threshold
	case OpGreaterOrEqual:
		return value >= threshold
	case OpEqual:
		return value == threshold
	default:
		return false
	}
}

// cronMatches reports whether spec (a 5-field standard cron expression)
// fires at the minute containing now.
func cronMatches(spec string, now time.Time) bool {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return false
	}
	minuteStart := now.Truncate(time.Minute)
	next := schedule.Next(minuteStart.Add(-time.Minute))
	return !next.Before(minuteStart) && next.Before(minuteStart.Add(time.Minute))
}
