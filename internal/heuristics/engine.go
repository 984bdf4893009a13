package heuristics

import (
	"context"
	"time"

	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

// Settings — явный коллаборатор настроек: никакого глобального
// состояния, в тестах подставляется фейк.
type Settings interface {
	GetInt(ctx context.Context, key string, fallback int) int
	GetBool(ctx context.Context, key string, fallback bool) bool
}

// Candidate — кандидат в событие, ещё не записанный в БД.
type Candidate struct {
	EventType string
	Severity  string
	Data      any
}

// Engine — чистая оценка правил: (новый отчёт, предыдущий, настройки)
// → ноль или больше кандидатов. Порядок правил фиксирован.
type Engine struct {
	settings Settings
	now      func() time.Time
}

func New(settings Settings) *Engine {
	return &Engine{settings: settings, now: func() time.Time { return time.Now().UTC() }}
}

// NewWithClock — для тестов ночного окна.
func NewWithClock(settings Settings, now func() time.Time) *Engine {
	return &Engine{settings: settings, now: now}
}

// Evaluate сравнивает cur с prev (prev == nil при первом отчёте).
// Каждое правило даёт максимум одно событие.
func (e *Engine) Evaluate(ctx context.Context, cur, prev *models.StatsSample) []Candidate {
	if !e.settings.GetBool(ctx, repo.KeyHeuristicEnabled, true) {
		return nil
	}

	var out []Candidate

	// 1. Смена активного MAC — подмена донгла/интерфейса.
	if prev != nil && prev.ActiveMACAddress != "" && cur.ActiveMACAddress != "" &&
		prev.ActiveMACAddress != cur.ActiveMACAddress {
		out = append(out, Candidate{
			EventType: models.EventMACChange,
			Severity:  models.SeverityCritical,
			Data:      models.MACChangeData{OldMAC: prev.ActiveMACAddress, NewMAC: cur.ActiveMACAddress},
		})
	}

	// 2. Смена IP.
	if prev != nil && prev.IPAddress != "" && cur.IPAddress != "" &&
		prev.IPAddress != cur.IPAddress {
		out = append(out, Candidate{
			EventType: models.EventIPChange,
			Severity:  models.SeverityWarning,
			Data:      models.IPChangeData{OldIP: prev.IPAddress, NewIP: cur.IPAddress},
		})
	}

	// 3. Смена залогиненного пользователя.
	if prev != nil && prev.LoggedInUser != "" && cur.LoggedInUser != "" &&
		prev.LoggedInUser != cur.LoggedInUser {
		out = append(out, Candidate{
			EventType: models.EventUserChange,
			Severity:  models.SeverityCritical,
			Data:      models.UserChangeData{OldUser: prev.LoggedInUser, NewUser: cur.LoggedInUser},
		})
	}

	// 4. Слишком много перезагрузок за сутки.
	restartTrigger := e.settings.GetInt(ctx, repo.KeyRestartTrigger, 5)
	if cur.RestartCount24h >= restartTrigger {
		out = append(out, Candidate{
			EventType: models.EventRestart,
			Severity:  models.SeverityWarning,
			Data:      models.RestartData{RestartCount24h: cur.RestartCount24h, Trigger: restartTrigger},
		})
	}

	// 5. Жёсткие выключения.
	abruptTrigger := e.settings.GetInt(ctx, repo.KeyAbruptShutdownTrigger, 3)
	if cur.AbruptShutdownCount24h >= abruptTrigger {
		out = append(out, Candidate{
			EventType: models.EventAbruptShutdown,
			Severity:  models.SeverityCritical,
			Data:      models.AbruptShutdownData{AbruptShutdownCount24h: cur.AbruptShutdownCount24h, Trigger: abruptTrigger},
		})
	}

	// 6. Активность ночью.
	nightStart := e.settings.GetInt(ctx, repo.KeyNightStartHour, 23)
	nightEnd := e.settings.GetInt(ctx, repo.KeyNightEndHour, 6)
	hour := e.now().Hour()
	if cur.IsOnline && inNightWindow(hour, nightStart, nightEnd) {
		out = append(out, Candidate{
			EventType: models.EventNightActivity,
			Severity:  models.SeverityWarning,
			Data:      models.NightActivityData{Hour: hour, NightStart: nightStart, NightEnd: nightEnd},
		})
	}

	return out
}

// inNightWindow — полуинтервал [start, end) с переходом через полночь.
func inNightWindow(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// FirstCritical — первое критическое событие в порядке правил
// (детерминированный tie-break для причины эскалации).
func FirstCritical(cands []Candidate) (Candidate, bool) {
	for _, c := range cands {
		if c.Severity == models.SeverityCritical {
			return c, true
		}
	}
	return Candidate{}, false
}
