// Package api はバックエンドREST APIへのトランスポート層を提供する。
//
// 単一のHTTPクライアントでリクエスト・レスポンスをラップし、
// ベアラートークンの付与、成功エンベロープの展開、
// エラー形状の正規化（{message}への集約）を行う。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/tomolink/internal/metrics"
	"github.com/hitoshi/tomolink/internal/model"
)

// userAgent は全リクエストに付与するUser-Agentヘッダー。
const userAgent = "Tomolink/1.0 Social Client"

// Config はClientの設定を保持する。
type Config struct {
	// BaseURL はAPIのベースURL（例: http://localhost:8080/api）。
	BaseURL string
	// RateLimitPerSec は外向きリクエストの秒間上限。0以下で無制限。
	RateLimitPerSec float64
	// RateLimitBurst はバーストサイズ。
	RateLimitBurst int
}

// Client はバックエンドAPIのクライアント。
// 全ての機能キャッシュはこのクライアント経由でリクエストを送信する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    metrics.Recorder
	logger     *slog.Logger

	mu    sync.RWMutex
	token string // 設定されている場合は全リクエストにBearerとして付与
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクス収集を行わない。
func NewClient(httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder, cfg Config) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimitPerSec > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), burst)
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		limiter:    limiter,
		metrics:    recorder,
		logger:     logger,
	}
}

// SetToken はアクセストークンを設定する。
// 以降の全リクエストにAuthorization: Bearerヘッダーとして付与される。
func (c *Client) SetToken(accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = accessToken
}

// ClearToken はアクセストークンを破棄する。
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// currentToken は設定中のトークンを返す。未設定の場合は空文字列。
func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Get はGETリクエストを送信し、成功エンベロープのdataを返す。
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post はJSONボディ付きのPOSTリクエストを送信し、成功エンベロープのdataを返す。
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put はJSONボディ付きのPUTリクエストを送信し、成功エンベロープのdataを返す。
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete はDELETEリクエストを送信し、成功エンベロープのdataを返す。
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// envelope はAPIの統一レスポンス形式。
// 成功時はdataに実データが入り、失敗時はerrors.messageにエラー内容が入る。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  *struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do はHTTPリクエストを実行し、レスポンスを正規化する。
// 失敗は常に*model.APIErrorとして返される。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	// レート制限（外向きリクエストの平滑化）
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, model.NewNetworkError(err.Error())
		}
	}

	// リクエストURL構築
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	// JSONボディのエンコード
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, model.NewInvalidResponseError(fmt.Sprintf("request body encoding: %s", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, model.NewNetworkError(err.Error())
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.currentToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	// HTTPリクエスト実行
	c.metrics.RecordRequest(method)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordRequestLatency(time.Since(start))
	if err != nil {
		c.metrics.RecordRequestFailure("network")
		c.logger.Error("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordRequestFailure("network")
		return nil, model.NewNetworkError(err.Error())
	}

	// エラーレスポンス: エンベロープからメッセージを抽出して正規化
	if resp.StatusCode >= 400 {
		c.metrics.RecordRequestFailure("server")
		var apiErr *model.APIError
		if resp.StatusCode == http.StatusUnauthorized {
			apiErr = model.NewUnauthorizedError()
		} else {
			apiErr = extractError(respBody)
		}
		c.logger.Warn("api request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	// ボディなしの成功（204等）はそのまま成功扱い
	if len(respBody) == 0 {
		return nil, nil
	}

	// 成功エンベロープの展開
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		c.metrics.RecordRequestFailure("decode")
		return nil, model.NewInvalidResponseError(err.Error())
	}

	return env.Data, nil
}

// extractError はエラーレスポンスのボディから統一エラーを生成する。
// エンベロープの形式に従わないボディはUnknown Error扱いになる。
func extractError(body []byte) *model.APIError {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Errors != nil {
		return model.NewServerError(env.Errors.Message)
	}
	return model.NewServerError("")
}
