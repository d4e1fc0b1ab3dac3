package kartavya

import (
	"testing"
	"time"
)

func TestCronMatches_EveryMinute(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 17, 42, 0, time.UTC)
	if !cronMatches("* * * * *", now) {
		t.Fatal("every-minute cron should always match")
	}
}

func TestCronMatches_SpecificMinute(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	if !cronMatches("30 9 * * *", now) {
		t.Fatal("09:30 cron should match at 09:30:00")
	}
	if cronMatches("30 9 * * *", now.Add(time.Minute)) {
		t.Fatal("09:30 cron should not match at 09:31")
	}
}

func TestCronMatches_InvalidSpec(t *testing.T) {
	if cronMatches("not a cron spec", time.Now()) {
		t.Fatal("an unparseable cron spec should never match")
	}
}

func TestMatches_Cron(t *testing.T) {
	trig := Trigger{Kind: TriggerCron, CronSpec: "* * * * *"}
	if !matches(trig, TriggerContext{Now: time.Now()}) {
		t.Fatal("want match")
	}
}

func TestMatches_EventPresentAndAbsent(t *testing.T) {
	trig := Trigger{Kind: TriggerEvent, EventName: "deploy.finished"}
	if matches(trig, TriggerContext{Events: map[string]struct{}{}}) {
		t.Fatal("absent event should not match")
	}
	if !matches(trig, TriggerContext{Events: map[string]struct{}{"deploy.finished": {}}}) {
		t.Fatal("present event should match")
	}
}

func TestMatches_ThresholdOperators(t *testing.T) {
	cases := []struct {
		op   ThresholdOp
		val  float64
		want bool
	}{
		{OpLess, 1, true},
		{OpLess, 2, false},
		{OpLessOrEqual, 2, true},
		{OpGreater, 3, true},
		{OpGreater, 2, false},
		{OpGreaterOrEqual, 2, true},
		{OpEqual, 2, true},
		{OpEqual, 3, false},
	}
	for _, c := range cases {
		trig := Trigger{Kind: TriggerThreshold, MetricName: "m", Op: c.op, ThresholdValue: 2}
		ctx := TriggerContext{Metrics: map[string]float64{"m": c.val}}
		if got := matches(trig, ctx); got != c.want {
			t.Errorf("op=%s val=%v: got %v want %v", c.op, c.val, got, c.want)
		}
	}
}

func TestMatches_ThresholdMissingMetric(t *testing.T) {
	trig := Trigger{Kind: TriggerThreshold, MetricName: "missing", Op: OpGreater, ThresholdValue: 0}
	if matches(trig, TriggerContext{Metrics: map[string]float64{}}) {
		t.Fatal("missing metric should never match")
	}
}

func TestMatches_PatternRegex(t *testing.T) {
	trig := Trigger{Kind: TriggerPattern, PatternRegex: "OOM.*killed"}
	if !matches(trig, TriggerContext{Patterns: []string{"process OOM was killed"}}) {
		t.Fatal("want match")
	}
	if matches(trig, TriggerContext{Patterns: []string{"all fine"}}) {
		t.Fatal("want no match")
	}
}

func TestMatches_PatternInvalidRegex(t *testing.T) {
	trig := Trigger{Kind: TriggerPattern, PatternRegex: "("}
	if matches(trig, TriggerContext{Patterns: []string{"anything"}}) {
		t.Fatal("an invalid regex should never match")
	}
}
