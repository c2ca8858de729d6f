package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"greenkeep/internal/app/client/config"
	"greenkeep/internal/app/client/offline"
	"greenkeep/internal/domain/collection"
	"greenkeep/internal/domain/record"
)

// Session - сохраненный результат входа.
type Session struct {
	User      Identity  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
	Server    string    `json:"server"`
}

// Status - сводка локального состояния для sync --status.
type Status struct {
	State       State            `json:"state"`
	Online      bool             `json:"online"`
	Pending     int              `json:"pending"`
	Conflicts   int              `json:"conflicts"`
	Checkpoints map[string]int64 `json:"checkpoints"`
	Stats       SyncStats        `json:"stats"`
	Session     *Session         `json:"session,omitempty"`
}

type App struct {
	config *config.Config
	log    *slog.Logger
	http   *httpClient
	cache  *offline.Cache
	sync   *SyncService

	mu      gosync.RWMutex
	session *Session
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}

	cache, err := offline.Open(cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия локального хранилища: %w", err)
	}

	httpCl := NewHTTPClient(cfg, log)
	app := &App{
		config: cfg,
		log:    log,
		http:   httpCl,
		cache:  cache,
		sync: NewSyncService(cache, httpCl, SyncConfig{
			Interval:       cfg.SyncInterval,
			HealthInterval:  cfg.HealthInterval,
			RequestTimeout: cfg.RequestTimeout,
		}, log),
	}

	// Загружаем токен если он есть
	if token, err := app.GetToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		app.session = app.loadSession()
		log.Debug("Токен загружен из файла")
	}

	return app, nil
}

func (a *App) Close() error {
	return a.cache.Close()
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return a.http.HealthCheck(ctx)
}

// Login выполняет вход и сохраняет токен локально.
func (a *App) Login(ctx context.Context, email, password string) (*Session, error) {
	res, err := a.http.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, fmt.Errorf("неверный email или пароль")
		}
		return nil, err
	}

	if err := a.SaveToken(res.Token); err != nil {
		return nil, err
	}

	s := &Session{User: res.User, ExpiresAt: res.ExpiresAt, Server: a.config.BaseURL()}
	if err := a.saveSession(s); err != nil {
		a.log.Warn("Не удалось сохранить сессию", slog.String("error", err.Error()))
	}

	a.mu.Lock()
	a.session = s
	a.mu.Unlock()

	a.log.Info("Вход выполнен успешно", slog.String("email", res.User.Email), slog.String("role", res.User.Role))
	return s, nil
}

// Logout удаляет токен. Локальные данные и очередь сохраняются.
func (a *App) Logout() error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.http.SetToken("")

	for _, path := range []string{a.config.TokenPath, a.config.SessionPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ошибка удаления %s: %w", path, err)
		}
	}
	return nil
}

// IsAuthenticated проверяет, аутентифицирован ли пользователь
func (a *App) IsAuthenticated() bool {
	return a.http.getToken() != ""
}

func (a *App) Session() *Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return string(tokenBytes), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	a.http.SetToken(token)
	return nil
}

func (a *App) saveSession(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.config.SessionPath, data, 0o600)
}

func (a *App) loadSession() *Session {
	data, err := os.ReadFile(a.config.SessionPath)
	if err != nil {
		return nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		a.log.Warn("Не удалось прочитать сессию", slog.String("error", err.Error()))
		return nil
	}
	return &s
}

// ==================== Record Operations ====================

// CreateRecord проверяет данные по схеме коллекции и ставит создание в очередь.
// Запись сразу доступна локально под временным id.
func (a *App) CreateRecord(ctx context.Context, name string, data map[string]any) (*record.Record, error) {
	data = record.StripProtected(data)
	if err := collection.Validate(name, data, collection.Full); err != nil {
		return nil, err
	}

	m, err := a.cache.EnqueueMutation(ctx, name, offline.OpCreate, record.Record{Data: data})
	if err != nil {
		return nil, err
	}
	return a.cache.Get(ctx, name, m.RecordKey)
}

// UpdateRecord применяет patch к локальной копии и ставит изменение в очередь.
func (a *App) UpdateRecord(ctx context.Context, name, key string, patch map[string]any) (*record.Record, error) {
	patch = record.StripProtected(patch)
	if err := collection.Validate(name, patch, collection.Partial); err != nil {
		return nil, err
	}

	if _, err := a.cache.EnqueueMutation(ctx, name, offline.OpUpdate, record.Record{ID: key, Data: patch}); err != nil {
		return nil, err
	}
	return a.cache.Get(ctx, name, key)
}

// DeleteRecord помечает запись удаленной (soft delete).
func (a *App) DeleteRecord(ctx context.Context, name, key string) error {
	if !collection.IsSyncable(name) {
		return fmt.Errorf("%w: %s", collection.ErrUnknownCollection, name)
	}
	_, err := a.cache.EnqueueMutation(ctx, name, offline.OpDelete, record.Record{ID: key})
	return err
}

func (a *App) GetRecord(ctx context.Context, name, key string) (*record.Record, error) {
	return a.cache.Get(ctx, name, key)
}

func (a *App) ListRecords(ctx context.Context, name string) ([]record.Record, error) {
	if !collection.IsSyncable(name) {
		return nil, fmt.Errorf("%w: %s", collection.ErrUnknownCollection, name)
	}
	return a.cache.ReadAll(ctx, name)
}

// ==================== Sync ====================

func (a *App) Sync(ctx context.Context) (*SyncResult, error) {
	if !a.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return a.sync.Sync(ctx)
}

// Watch синхронизирует в фоне до отмены ctx.
func (a *App) Watch(ctx context.Context) error {
	if !a.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return a.sync.Run(ctx)
}

func (a *App) Status(ctx context.Context) (*Status, error) {
	pending, err := a.cache.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	conflicts, err := a.cache.Conflicts(ctx)
	if err != nil {
		return nil, err
	}
	checkpoints, err := a.cache.Checkpoints(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		State:       a.sync.State(),
		Online:      a.sync.Online(),
		Pending:     pending,
		Conflicts:   len(conflicts),
		Checkpoints: checkpoints,
		Stats:       a.sync.Stats(),
		Session:     a.Session(),
	}, nil
}

func (a *App) PendingMutations(ctx context.Context) ([]offline.Mutation, error) {
	return a.cache.PendingMutations(ctx)
}

func (a *App) Conflicts(ctx context.Context) ([]offline.Conflict, error) {
	return a.cache.Conflicts(ctx)
}

func (a *App) ResolveConflict(ctx context.Context, seq int64, resolution string) error {
	return a.sync.ResolveConflict(ctx, seq, resolution)
}

func (a *App) DiscardMutation(ctx context.Context, seq int64) error {
	return a.sync.DiscardMutation(ctx, seq)
}
