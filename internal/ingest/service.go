package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/datatypes"

	"rentwatch/internal/heuristics"
	"rentwatch/internal/logs"
	"rentwatch/internal/metrics"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
	"rentwatch/internal/tracking"
)

// Контракты коллабораторов — под ними живут GORM-сторы,
// в тестах подставляются фейки.

type Directory interface {
	FindByIdent(ctx context.Context, ident string) (*models.Device, error)
	UpdateLiveness(ctx context.Context, id uint, in repo.LivenessInput) error
	IncrementAlertCount(ctx context.Context, id uint, by int) error
}

type Stats interface {
	Append(ctx context.Context, sample *models.StatsSample) error
	Latest(ctx context.Context, deviceID uint) (*models.StatsSample, error)
}

type Events interface {
	CreateBatch(ctx context.Context, events []models.DeviceEvent) error
	Create(ctx context.Context, ev *models.DeviceEvent) error
}

type Escalator interface {
	AutoEscalate(ctx context.Context, deviceID uint, eventType string) (bool, error)
}

type Screenshots interface {
	Create(ctx context.Context, shot *models.Screenshot) error
}

type Settings interface {
	GetInt(ctx context.Context, key string, fallback int) int
	GetBool(ctx context.Context, key string, fallback bool) bool
}

// BaselineCache — необязательный кэш последнего отчёта (Redis).
type BaselineCache interface {
	Get(ctx context.Context, deviceID uint) (*models.StatsSample, error)
	Set(ctx context.Context, sample *models.StatsSample) error
}

// deviceLocks — мьютекс на устройство: чтение baseline, эвристики и
// эскалация для одного устройства идут строго последовательно.
type deviceLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func (l *deviceLocks) get(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[uint]*sync.Mutex)
	}
	lk, ok := l.m[id]
	if !ok {
		lk = &sync.Mutex{}
		l.m[id] = lk
	}
	return lk
}

// Service — приём телеметрии и внешних событий.
type Service struct {
	dir      Directory
	stats    Stats
	events   Events
	shots    Screenshots
	engine   *heuristics.Engine
	ctrl     Escalator
	settings Settings
	baseline BaselineCache // может быть nil

	locks deviceLocks
}

func New(dir Directory, stats Stats, events Events, shots Screenshots,
	engine *heuristics.Engine, ctrl Escalator, settings Settings, baseline BaselineCache) *Service {
	return &Service{
		dir: dir, stats: stats, events: events, shots: shots,
		engine: engine, ctrl: ctrl, settings: settings, baseline: baseline,
	}
}

// SubmitInput — телеметрия одного отчёта от агента.
type SubmitInput struct {
	DeviceIdent string
	Timestamp   time.Time

	CPUUsage  float64
	RAMUsage  float64
	DiskUsage float64

	IPAddress        string
	ActiveMACAddress string
	LanMACAddress    string
	ConnectionType   string
	ComputerName     string
	LoggedInUser     string
	IsOnline         bool

	RestartCount24h        int
	AbruptShutdownCount24h int

	CPUTemp       *float64
	HDDTemp       *float64
	UptimeMinutes *int
	ActiveWindow  string
}

// Response — ответ агенту: блокироваться или нет, статус, режим
// и каденс следующего отчёта.
type Response struct {
	LockStatus   bool
	DeviceStatus string
	TrackingMode string
	Cadence      tracking.Cadence
}

// Submit — приём отчёта. Сбои эвристик и записей событий деградируют
// до «событий нет», агент всё равно получает ответ.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Response, error) {
	dev, err := s.dir.FindByIdent(ctx, in.DeviceIdent)
	if err != nil {
		return nil, err
	}

	lk := s.locks.get(dev.ID)
	lk.Lock()
	defer lk.Unlock()

	// (a) baseline — предыдущий отчёт; кэш, затем БД
	prev := s.fetchBaseline(ctx, dev.ID)

	// (b) сам отчёт, с режимом на момент приёма
	sample := s.buildSample(dev, in)
	if err := s.stats.Append(ctx, sample); err != nil {
		logs.Logger.Errorf("stats append failed: device=%d err=%v", dev.ID, err)
	}

	// (c) живость и непустые сетевые атрибуты
	if err := s.dir.UpdateLiveness(ctx, dev.ID, repo.LivenessInput{
		LanMACAddress:    in.LanMACAddress,
		ActiveMACAddress: in.ActiveMACAddress,
		ConnectionType:   in.ConnectionType,
	}); err != nil {
		logs.Logger.Errorf("liveness update failed: device=%d err=%v", dev.ID, err)
	}

	// (d) эвристики + возможная эскалация
	mode := dev.TrackingMode
	if escalated := s.runHeuristics(ctx, dev, sample, prev); escalated {
		mode = models.TrackingSuperwatch
	}

	if s.baseline != nil {
		if err := s.baseline.Set(ctx, sample); err != nil {
			logs.Logger.Debugf("baseline cache set failed: device=%d err=%v", dev.ID, err)
		}
	}
	metrics.SamplesReceived.Inc()

	// (e) каденс уже по возможно-эскалированному режиму
	return &Response{
		LockStatus:   dev.IsLockTarget(),
		DeviceStatus: dev.Status,
		TrackingMode: mode,
		Cadence:      tracking.CadenceFor(ctx, s.settings, mode),
	}, nil
}

func (s *Service) fetchBaseline(ctx context.Context, deviceID uint) *models.StatsSample {
	if s.baseline != nil {
		prev, err := s.baseline.Get(ctx, deviceID)
		if err != nil {
			logs.Logger.Debugf("baseline cache get failed: device=%d err=%v", deviceID, err)
		} else if prev != nil {
			return prev
		}
	}
	prev, err := s.stats.Latest(ctx, deviceID)
	if err != nil {
		logs.Logger.Errorf("baseline fetch failed: device=%d err=%v", deviceID, err)
		return nil
	}
	return prev
}

func (s *Service) buildSample(dev *models.Device, in SubmitInput) *models.StatsSample {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &models.StatsSample{
		DeviceID:               dev.ID,
		Timestamp:              ts,
		CPUUsage:               in.CPUUsage,
		RAMUsage:               in.RAMUsage,
		DiskUsage:              in.DiskUsage,
		IPAddress:              in.IPAddress,
		ActiveMACAddress:       in.ActiveMACAddress,
		LanMACAddress:          in.LanMACAddress,
		ConnectionType:         in.ConnectionType,
		ComputerName:           in.ComputerName,
		LoggedInUser:           in.LoggedInUser,
		IsOnline:               in.IsOnline,
		RestartCount24h:        in.RestartCount24h,
		AbruptShutdownCount24h: in.AbruptShutdownCount24h,
		CPUTemp:                in.CPUTemp,
		HDDTemp:                in.HDDTemp,
		UptimeMinutes:          in.UptimeMinutes,
		ActiveWindow:           in.ActiveWindow,
		TrackingMode:           dev.TrackingMode,
	}
}

// runHeuristics пишет пачку событий и эскалирует по первому
// критическому. Возвращает, случился ли переход в SUPERWATCH.
func (s *Service) runHeuristics(ctx context.Context, dev *models.Device, cur, prev *models.StatsSample) bool {
	cands := s.engine.Evaluate(ctx, cur, prev)
	if len(cands) == 0 {
		return false
	}

	events := make([]models.DeviceEvent, 0, len(cands))
	for _, c := range cands {
		events = append(events, models.DeviceEvent{
			DeviceID:  dev.ID,
			EventType: c.EventType,
			Severity:  c.Severity,
			EventData: models.MarshalEventData(c.Data),
		})
	}
	if err := s.events.CreateBatch(ctx, events); err != nil {
		logs.Logger.Errorf("event batch write failed, degrading to no events: device=%d err=%v", dev.ID, err)
		metrics.HeuristicFailures.Inc()
		return false
	}
	for _, c := range cands {
		metrics.EventsGenerated.WithLabelValues(c.EventType, c.Severity).Inc()
	}

	escalated := false
	if first, ok := heuristics.FirstCritical(cands); ok {
		esc, err := s.ctrl.AutoEscalate(ctx, dev.ID, first.EventType)
		if err == nil {
			escalated = esc
		}
	}
	if err := s.dir.IncrementAlertCount(ctx, dev.ID, len(events)); err != nil {
		logs.Logger.Errorf("alert count bump failed: device=%d err=%v", dev.ID, err)
	}
	return escalated
}

// EventInput — дискретное событие, о котором агент сообщает сам.
type EventInput struct {
	DeviceIdent string
	EventType   string
	EventData   json.RawMessage
	Severity    string // пусто — классифицируем по таблице
}

// ReportEvent валидирует тип против закрытого списка, подбирает
// severity и применяет то же правило авто-эскалации.
func (s *Service) ReportEvent(ctx context.Context, in EventInput) (string, error) {
	if !models.IsValidEventType(in.EventType) {
		return "", repo.Invalid("invalid event type")
	}
	severity := in.Severity
	switch severity {
	case "":
		severity = models.ClassifySeverity(in.EventType)
	case models.SeverityInfo, models.SeverityWarning, models.SeverityCritical:
	default:
		return "", repo.Invalid("severity must be INFO, WARNING or CRITICAL")
	}

	dev, err := s.dir.FindByIdent(ctx, in.DeviceIdent)
	if err != nil {
		return "", err
	}

	lk := s.locks.get(dev.ID)
	lk.Lock()
	defer lk.Unlock()

	ev := &models.DeviceEvent{
		DeviceID:  dev.ID,
		EventType: in.EventType,
		Severity:  severity,
		EventData: datatypes.JSON(in.EventData),
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return "", err
	}
	metrics.EventsGenerated.WithLabelValues(in.EventType, severity).Inc()

	if severity == models.SeverityCritical && dev.TrackingMode != models.TrackingSuperwatch {
		_, _ = s.ctrl.AutoEscalate(ctx, dev.ID, in.EventType)
	}
	if err := s.dir.IncrementAlertCount(ctx, dev.ID, 1); err != nil {
		logs.Logger.Errorf("alert count bump failed: device=%d err=%v", dev.ID, err)
	}
	return severity, nil
}

// ScreenshotInput — кадр от агента.
type ScreenshotInput struct {
	DeviceIdent  string
	Data         []byte
	FileSizeKB   int
	Width        int
	Height       int
	ActiveWindow string
	TriggeredBy  string
	Meta         json.RawMessage
}

// AcceptScreenshot принимает кадр только в режиме SUPERWATCH.
func (s *Service) AcceptScreenshot(ctx context.Context, in ScreenshotInput) error {
	if len(in.Data) == 0 {
		return repo.Invalid("screenshot data required")
	}
	dev, err := s.dir.FindByIdent(ctx, in.DeviceIdent)
	if err != nil {
		return err
	}
	if dev.TrackingMode != models.TrackingSuperwatch {
		return repo.ErrForbidden
	}

	shot := &models.Screenshot{
		DeviceID:     dev.ID,
		Data:         in.Data,
		FileSizeKB:   in.FileSizeKB,
		Width:        in.Width,
		Height:       in.Height,
		ActiveWindow: in.ActiveWindow,
		TriggeredBy:  in.TriggeredBy,
		Meta:         datatypes.JSON(in.Meta),
	}
	if shot.Width == 0 {
		shot.Width = 1024
	}
	if shot.Height == 0 {
		shot.Height = 768
	}
	if shot.TriggeredBy == "" {
		shot.TriggeredBy = "AUTO_SUPERWATCH"
	}
	if err := s.shots.Create(ctx, shot); err != nil {
		return err
	}
	metrics.ScreenshotsStored.Inc()
	return nil
}
