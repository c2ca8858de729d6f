package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"greenkeep/internal/app/client/config"
	"greenkeep/internal/domain/sync"
)

const headerTenantID = "X-Tenant-Id"

// LoginResult - ответ сервера на вход.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Identity  `json:"user"`
}

// Identity - пользователь, под которым работает клиент.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId,omitempty"`
}

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	tenantID  string
	userAgent string

	mu    gosync.RWMutex
	token string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &httpClient{
		client:    client,
		log:       log.With(slog.String("component", "http_client")),
		baseURL:   strings.TrimRight(cfg.BaseURL(), "/"),
		tenantID:  cfg.TenantID,
		userAgent: "GreenKeep-Client/1.0",
	}
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *httpClient) getToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (h *httpClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result LoginResult
	if err := h.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &result); err != nil {
		return nil, err
	}

	h.SetToken(result.Token)
	return &result, nil
}

func (h *httpClient) Pull(ctx context.Context, req sync.PullRequest) (sync.PullResponse, error) {
	resp := make(sync.PullResponse)
	if err := h.do(ctx, http.MethodPost, "/api/v1/sync/pull", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *httpClient) Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error) {
	var resp sync.PushResponse
	if err := h.do(ctx, http.MethodPost, "/api/v1/sync/push", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *httpClient) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if token := h.getToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if h.tenantID != "" {
		req.Header.Set(headerTenantID, h.tenantID)
	}

	h.log.Debug("Отправка запроса",
		slog.String("method", method),
		slog.String("url", req.URL.String()),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}

	return h.parseResponse(resp, result)
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: ошибка чтения ответа: %v", ErrOffline, err)
	}

	h.log.Debug("Получен ответ",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		// middleware отвечает {"error": ...}, huma - {"title", "detail"}
		var errResp struct {
			Error  string `json:"error"`
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		msg := ""
		if err := json.Unmarshal(body, &errResp); err == nil {
			switch {
			case errResp.Error != "":
				msg = errResp.Error
			case errResp.Detail != "":
				msg = errResp.Detail
			default:
				msg = errResp.Title
			}
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}
