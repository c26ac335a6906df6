// Package app はアプリケーションの起動とサブコマンドの配線を提供する。
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/tomolink/internal/config"
	"github.com/hitoshi/tomolink/internal/devserver"
	"github.com/hitoshi/tomolink/internal/logger"
	"github.com/hitoshi/tomolink/internal/metrics"
	"github.com/hitoshi/tomolink/internal/store"
)

const usage = `tomolink - social network client state layer

Usage:
  tomolink devserver    開発用スタブバックエンドを起動する
  tomolink whoami       セッションを初期化して現在のユーザーを表示する
  tomolink healthcheck  devserverの死活確認を行う
`

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	switch cmd {
	case CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		return runHealthcheck(serverPort())
	case CommandDevserver:
		// devserverはAPI_BASE_URLを必要としないため、設定読み込みを
		// スキップしてログのみセットアップする
		logger.SetupDefault(w)
		return runDevserver(serverPort())
	case CommandWhoami:
		cfg, err := Init(w)
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		return runWhoami(w, cfg)
	default:
		fmt.Fprint(w, usage)
		return nil
	}
}

// serverPort はdevserverの待ち受けポートを返す。
func serverPort() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return port
}

// runDevserver は開発用スタブバックエンドを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runDevserver(port string) error {
	secret := os.Getenv("DEVSERVER_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      devserver.NewServer(secret).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("dev server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down dev server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("dev server stopped gracefully")
	return nil
}

// runWhoami はStoreを組み立ててセッションを初期化し、結果をJSONで表示する。
// 永続トークンが有効ならログイン済みユーザーが表示される。
func runWhoami(w io.Writer, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	st, err := store.New(cfg, slog.Default(), store.Options{
		Recorder: metrics.NewCollector(registry),
	})
	if err != nil {
		return fmt.Errorf("failed to build store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	state := st.Session.Initialize(ctx)

	out := map[string]any{
		"isInitialized":   state.IsInitialized,
		"isAuthenticated": state.IsAuthenticated,
	}
	if state.User != nil {
		out["user"] = state.User
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
