package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	gosync "sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"greenkeep/internal/app/client/offline"
	"greenkeep/internal/domain/collection"
	"greenkeep/internal/domain/record"
	"greenkeep/internal/domain/sync"
)

// Transport - сетевая часть синхронизации.
type Transport interface {
	HealthCheck(ctx context.Context) error
	Pull(ctx context.Context, req sync.PullRequest) (sync.PullResponse, error)
	Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error)
}

// LocalStore - локальный кэш, с которым работает синхронизация.
type LocalStore interface {
	PendingMutations(ctx context.Context) ([]offline.Mutation, error)
	PendingCount(ctx context.Context) (int, error)
	DequeueMutations(ctx context.Context, seqs []int64) error
	ApplyAccepted(ctx context.Context, collection string, acc sync.Accepted) error
	MarkRejected(ctx context.Context, collection string, seq int64, rej sync.Rejected) error
	Checkpoints(ctx context.Context) (map[string]int64, error)
	SetCheckpoint(ctx context.Context, collection string, version int64) error
	SaveRecords(ctx context.Context, collection string, records []record.Record) error
	ResolveConflict(ctx context.Context, seq int64, resolution string) error
	DiscardMutation(ctx context.Context, seq int64) error
}

type State int32

const (
	StateIdle State = iota
	StateSyncing
)

func (s State) String() string {
	if s == StateSyncing {
		return "syncing"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Пакет push должен помещаться в лимит тела запроса на сервере (4 MiB).
const (
	DefaultMaxBatch      = 200
	DefaultMaxBatchBytes = 512 << 10
)

// SyncConfig конфигурация синхронизации
type SyncConfig struct {
	Interval       time.Duration // таймер при наличии неотправленных изменений
	HealthInterval  time.Duration // проверка связи с сервером
	RequestTimeout time.Duration // предел для pull и каждого пакета push
	MaxBatch       int           // записей в одном push
	MaxBatchBytes  int           // размер записей в одном push, байт
}

// SyncResult результат синхронизации
type SyncResult struct {
	Pushed    int           `json:"pushed"`
	Accepted  int           `json:"accepted"`
	Rejected  int           `json:"rejected"`
	Conflicts int           `json:"conflicts"`
	Pulled    int           `json:"pulled"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// SyncStats статистика синхронизации
type SyncStats struct {
	TotalSyncs     int       `json:"total_syncs"`
	TotalFailed    int       `json:"total_failed"`
	LastSuccessful time.Time `json:"last_successful"`
	LastFailed     time.Time `json:"last_failed"`
	LastError      string    `json:"last_error,omitempty"`
}

// SyncService проводит цикл синхронизации: push очереди, pull изменений.
// Одновременно выполняется не больше одного цикла.
type SyncService struct {
	store     LocalStore
	transport Transport
	log       *slog.Logger
	config    SyncConfig

	state  atomic.Int32
	online atomic.Bool

	mu    gosync.RWMutex
	stats SyncStats
	now   func() time.Time
}

func NewSyncService(store LocalStore, transport Transport, cfg SyncConfig, log *slog.Logger) *SyncService {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	if cfg.MaxBatchBytes <= 0 {
		cfg.MaxBatchBytes = DefaultMaxBatchBytes
	}

	return &SyncService{
		store:     store,
		transport: transport,
		log:       log.With(slog.String("component", "sync")),
		config:    cfg,
		now:       time.Now,
	}
}

func (s *SyncService) State() State {
	return State(s.state.Load())
}

func (s *SyncService) Online() bool {
	return s.online.Load()
}

func (s *SyncService) Stats() SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Sync запускает один цикл синхронизации. Если цикл уже идет,
// возвращает ErrSyncInProgress.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSyncing)) {
		return nil, ErrSyncInProgress
	}
	defer s.state.Store(int32(StateIdle))

	result := &SyncResult{StartTime: s.now()}
	s.log.Info("Начало синхронизации")

	err := s.push(ctx, result)
	if err == nil {
		err = s.pull(ctx, result)
	}
	result.Duration = s.now().Sub(result.StartTime)

	if err != nil {
		if errors.Is(err, ErrOffline) {
			s.online.Store(false)
		}
		s.recordFailure(err)
		s.log.Warn("Синхронизация прервана",
			slog.String("error", err.Error()),
			slog.Duration("duration", result.Duration),
		)
		return result, err
	}

	s.online.Store(true)
	s.recordSuccess()
	s.log.Info("Синхронизация завершена",
		slog.Int("pushed", result.Pushed),
		slog.Int("accepted", result.Accepted),
		slog.Int("rejected", result.Rejected),
		slog.Int("pulled", result.Pulled),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// push отправляет очередь частями. Локальное состояние меняется только
// после ответа сервера на свою часть; ошибка прерывает отправку, но уже
// подтвержденные части остаются примененными.
func (s *SyncService) push(ctx context.Context, result *SyncResult) error {
	mutations, err := s.store.PendingMutations(ctx)
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}

	for len(mutations) > 0 {
		req, seqs, n, err := s.nextBatch(mutations)
		if err != nil {
			return err
		}
		mutations = mutations[n:]
		if err := s.pushBatch(ctx, req, seqs, result); err != nil {
			return err
		}
	}
	return nil
}

// nextBatch собирает из начала очереди пакет не больше MaxBatch записей
// и MaxBatchBytes байт. Первая запись попадает в пакет всегда.
func (s *SyncService) nextBatch(mutations []offline.Mutation) (sync.PushRequest, map[string]map[string]int64, int, error) {
	req := sync.PushRequest{}
	seqs := make(map[string]map[string]int64)
	size := 0

	n := 0
	for _, m := range mutations {
		if n >= s.config.MaxBatch {
			break
		}
		if err := req.Add(m.Collection, m.Payload); err != nil {
			return sync.PushRequest{}, nil, 0, err
		}
		list := req.Changes[m.Collection]
		size += len(list[len(list)-1])
		if n > 0 && size > s.config.MaxBatchBytes {
			req.Changes[m.Collection] = list[:len(list)-1]
			if len(req.Changes[m.Collection]) == 0 {
				delete(req.Changes, m.Collection)
			}
			break
		}

		if seqs[m.Collection] == nil {
			seqs[m.Collection] = make(map[string]int64)
		}
		seqs[m.Collection][m.RecordKey] = m.Seq
		n++
	}
	return req, seqs, n, nil
}

func (s *SyncService) pushBatch(ctx context.Context, req sync.PushRequest, seqs map[string]map[string]int64, result *SyncResult) error {
	result.Pushed += req.Len()

	pushCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := s.transport.Push(pushCtx, req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}

	var done []int64
	for _, name := range sortedKeys(resp.Accepted) {
		for _, acc := range resp.Accepted[name] {
			key := acc.TempID
			if key == "" {
				key = acc.ID
			}
			seq, ok := seqs[name][key]
			if !ok {
				s.log.Warn("accepted record not in queue", slog.String("collection", name), slog.String("key", key))
				continue
			}
			if err := s.store.ApplyAccepted(ctx, name, acc); err != nil {
				return fmt.Errorf("apply accepted %s/%s: %w", name, key, err)
			}
			done = append(done, seq)
			result.Accepted++
		}
	}
	if err := s.store.DequeueMutations(ctx, done); err != nil {
		return fmt.Errorf("dequeue: %w", err)
	}

	for _, name := range sortedKeys(resp.Rejected) {
		for _, rej := range resp.Rejected[name] {
			seq, ok := seqs[name][rej.Key()]
			if !ok {
				continue
			}
			s.log.Warn("record rejected",
				slog.String("collection", name),
				slog.String("key", rej.Key()),
				slog.String("reason", rej.Reason),
				slog.String("message", rej.Message),
			)
			if err := s.store.MarkRejected(ctx, name, seq, rej); err != nil {
				return fmt.Errorf("mark rejected %s/%s: %w", name, rej.Key(), err)
			}
			result.Rejected++
			if rej.Reason == sync.ReasonConflict || rej.Reason == sync.ReasonNotFound {
				result.Conflicts++
			}
		}
	}
	return nil
}

func (s *SyncService) pull(ctx context.Context, result *SyncResult) error {
	checkpoints, err := s.store.Checkpoints(ctx)
	if err != nil {
		return fmt.Errorf("read checkpoints: %w", err)
	}

	req := sync.PullRequest{LastSyncVersions: make(map[string]int64)}
	for _, name := range collection.Names() {
		req.LastSyncVersions[name] = checkpoints[name]
	}

	pullCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	changes, err := s.transport.Pull(pullCtx, req)
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}

	for _, name := range sortedKeys(changes) {
		records := changes[name]
		if len(records) == 0 {
			continue
		}
		if err := s.store.SaveRecords(ctx, name, records); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		if err := s.store.SetCheckpoint(ctx, name, record.MaxVersion(records)); err != nil {
			return fmt.Errorf("checkpoint %s: %w", name, err)
		}
		result.Pulled += len(records)
	}
	return nil
}

// Run следит за связью с сервером: переход офлайн -> онлайн запускает
// синхронизацию, таймер запускает ее, пока есть неотправленные изменения.
// Возвращается после отмены ctx.
func (s *SyncService) Run(ctx context.Context) error {
	health := time.NewTicker(s.config.HealthInterval)
	defer health.Stop()
	timer := time.NewTicker(s.config.Interval)
	defer timer.Stop()

	s.log.Info("Фоновая синхронизация запущена",
		slog.Duration("interval", s.config.Interval),
		slog.Duration("health_interval", s.config.HealthInterval),
	)

	s.checkHealth(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Синхронизация остановлена")
			return nil
		case <-health.C:
			s.checkHealth(ctx)
		case <-timer.C:
			if !s.Online() {
				continue
			}
			n, err := s.store.PendingCount(ctx)
			if err != nil {
				s.log.Error("pending count", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.trigger(ctx)
			}
		}
	}
}

func (s *SyncService) checkHealth(ctx context.Context) {
	healthCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	err := s.transport.HealthCheck(healthCtx)
	cancel()

	wasOnline := s.online.Swap(err == nil)
	switch {
	case err == nil && !wasOnline:
		s.log.Info("Сервер доступен")
		s.trigger(ctx)
	case err != nil && wasOnline:
		s.log.Warn("Сервер недоступен", slog.String("error", err.Error()))
	}
}

func (s *SyncService) trigger(ctx context.Context) {
	if _, err := s.Sync(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
		s.log.Debug("triggered sync failed", slog.String("error", err.Error()))
	}
}

// ResolveConflict применяет решение пользователя: "server" или "client".
func (s *SyncService) ResolveConflict(ctx context.Context, seq int64, resolution string) error {
	if err := s.store.ResolveConflict(ctx, seq, resolution); err != nil {
		return err
	}
	s.log.Info("Конфликт разрешен", slog.Int64("seq", seq), slog.String("resolution", resolution))
	return nil
}

// DiscardMutation отменяет изменение из очереди. Серверная копия записи
// вернется при следующей синхронизации.
func (s *SyncService) DiscardMutation(ctx context.Context, seq int64) error {
	if err := s.store.DiscardMutation(ctx, seq); err != nil {
		return err
	}
	s.log.Info("Изменение отменено", slog.Int64("seq", seq))
	return nil
}

func (s *SyncService) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalSyncs++
	s.stats.LastSuccessful = s.now()
	s.stats.LastError = ""
}

func (s *SyncService) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalFailed++
	s.stats.LastFailed = s.now()
	s.stats.LastError = err.Error()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
