package heuristics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentwatch/internal/heuristics"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

type fakeSettings struct {
	ints  map[string]int
	bools map[string]bool
}

func (f fakeSettings) GetInt(_ context.Context, key string, fallback int) int {
	if v, ok := f.ints[key]; ok {
		return v
	}
	return fallback
}

func (f fakeSettings) GetBool(_ context.Context, key string, fallback bool) bool {
	if v, ok := f.bools[key]; ok {
		return v
	}
	return fallback
}

// noon — час заведомо вне ночного окна по умолчанию
func noonEngine(s fakeSettings) *heuristics.Engine {
	return heuristics.NewWithClock(s, func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
}

func baseSample() *models.StatsSample {
	return &models.StatsSample{
		DeviceID:         1,
		ActiveMACAddress: "AA:AA:AA:AA:AA:AA",
		IPAddress:        "10.0.0.5",
		LoggedInUser:     "bob",
		IsOnline:         true,
	}
}

func TestEvaluate_IdenticalSampleYieldsNothing(t *testing.T) {
	e := noonEngine(fakeSettings{})
	prev := baseSample()
	cur := baseSample()

	require.Empty(t, e.Evaluate(context.Background(), cur, prev))
}

func TestEvaluate_FirstReportHasNoBaseline(t *testing.T) {
	e := noonEngine(fakeSettings{})
	cur := baseSample()

	require.Empty(t, e.Evaluate(context.Background(), cur, nil))
}

func TestEvaluate_Disabled(t *testing.T) {
	e := noonEngine(fakeSettings{bools: map[string]bool{repo.KeyHeuristicEnabled: false}})
	prev := baseSample()
	cur := baseSample()
	cur.ActiveMACAddress = "BB:BB:BB:BB:BB:BB"
	cur.RestartCount24h = 99

	require.Empty(t, e.Evaluate(context.Background(), cur, prev))
}

func TestEvaluate_MACChangeIsCritical(t *testing.T) {
	e := noonEngine(fakeSettings{})
	prev := baseSample()
	cur := baseSample()
	cur.ActiveMACAddress = "BB:BB:BB:BB:BB:BB"

	out := e.Evaluate(context.Background(), cur, prev)
	require.Len(t, out, 1)
	require.Equal(t, models.EventMACChange, out[0].EventType)
	require.Equal(t, models.SeverityCritical, out[0].Severity)
	require.Equal(t, models.MACChangeData{
		OldMAC: "AA:AA:AA:AA:AA:AA",
		NewMAC: "BB:BB:BB:BB:BB:BB",
	}, out[0].Data)
}

func TestEvaluate_MACAbsentOnEitherSideIsIgnored(t *testing.T) {
	e := noonEngine(fakeSettings{})

	prev := baseSample()
	prev.ActiveMACAddress = ""
	cur := baseSample()
	cur.ActiveMACAddress = "BB:BB:BB:BB:BB:BB"
	require.Empty(t, e.Evaluate(context.Background(), cur, prev))

	prev = baseSample()
	cur = baseSample()
	cur.ActiveMACAddress = ""
	require.Empty(t, e.Evaluate(context.Background(), cur, prev))
}

func TestEvaluate_RestartBoundary(t *testing.T) {
	e := noonEngine(fakeSettings{ints: map[string]int{repo.KeyRestartTrigger: 5}})
	prev := baseSample()

	cur := baseSample()
	cur.RestartCount24h = 4
	require.Empty(t, e.Evaluate(context.Background(), cur, prev))

	cur.RestartCount24h = 5
	out := e.Evaluate(context.Background(), cur, prev)
	require.Len(t, out, 1)
	require.Equal(t, models.EventRestart, out[0].EventType)
	require.Equal(t, models.SeverityWarning, out[0].Severity)
}

func TestEvaluate_AbruptShutdownBoundary(t *testing.T) {
	e := noonEngine(fakeSettings{})
	prev := baseSample()

	cur := baseSample()
	cur.AbruptShutdownCount24h = 2
	require.Empty(t, e.Evaluate(context.Background(), cur, prev))

	cur.AbruptShutdownCount24h = 3
	out := e.Evaluate(context.Background(), cur, prev)
	require.Len(t, out, 1)
	require.Equal(t, models.EventAbruptShutdown, out[0].EventType)
	require.Equal(t, models.SeverityCritical, out[0].Severity)
}

func TestEvaluate_NightWindowWrapAround(t *testing.T) {
	cases := []struct {
		hour   int
		inside bool
	}{
		{23, true},
		{0, true},
		{5, true},
		{6, false},
		{12, false},
		{22, false},
	}
	for _, tc := range cases {
		e := heuristics.NewWithClock(fakeSettings{}, func() time.Time {
			return time.Date(2026, 3, 1, tc.hour, 30, 0, 0, time.UTC)
		})
		out := e.Evaluate(context.Background(), baseSample(), baseSample())
		if tc.inside {
			require.Len(t, out, 1, "hour %d must be inside the night window", tc.hour)
			require.Equal(t, models.EventNightActivity, out[0].EventType)
		} else {
			require.Empty(t, out, "hour %d must be outside the night window", tc.hour)
		}
	}
}

func TestEvaluate_NightActivityRequiresOnline(t *testing.T) {
	e := heuristics.NewWithClock(fakeSettings{}, func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	})
	cur := baseSample()
	cur.IsOnline = false
	require.Empty(t, e.Evaluate(context.Background(), cur, baseSample()))
}

func TestEvaluate_RuleOrderIsStable(t *testing.T) {
	e := noonEngine(fakeSettings{})
	prev := baseSample()
	cur := baseSample()
	cur.ActiveMACAddress = "BB:BB:BB:BB:BB:BB"
	cur.IPAddress = "10.0.0.9"
	cur.LoggedInUser = "mallory"

	out := e.Evaluate(context.Background(), cur, prev)
	require.Len(t, out, 3)
	require.Equal(t, models.EventMACChange, out[0].EventType)
	require.Equal(t, models.EventIPChange, out[1].EventType)
	require.Equal(t, models.EventUserChange, out[2].EventType)
}

func TestFirstCritical_TieBreakByRuleOrder(t *testing.T) {
	e := noonEngine(fakeSettings{})
	prev := baseSample()
	cur := baseSample()
	cur.ActiveMACAddress = "BB:BB:BB:BB:BB:BB"
	cur.LoggedInUser = "mallory"

	out := e.Evaluate(context.Background(), cur, prev)
	first, ok := heuristics.FirstCritical(out)
	require.True(t, ok)
	require.Equal(t, models.EventMACChange, first.EventType)
}

func TestFirstCritical_NoneWhenOnlyWarnings(t *testing.T) {
	e := noonEngine(fakeSettings{})
	prev := baseSample()
	cur := baseSample()
	cur.IPAddress = "10.0.0.9"

	out := e.Evaluate(context.Background(), cur, prev)
	require.Len(t, out, 1)
	_, ok := heuristics.FirstCritical(out)
	require.False(t, ok)
}
