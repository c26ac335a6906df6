// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, network, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNetworkFailure  = "NETWORK_FAILURE"
	ErrCodeServerRejected  = "SERVER_REJECTED"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeUploadFailed    = "UPLOAD_FAILED"
	ErrCodeUnknown         = "UNKNOWN_ERROR"
)

// NewNetworkError は通信失敗エラーを生成する。
// リクエストが送信できなかった、または応答が受信できなかった場合に使用する。
func NewNetworkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetworkFailure,
		Message:  fmt.Sprintf("サーバーとの通信に失敗しました: %s", reason),
		Category: "network",
		Action:   "ネットワーク接続を確認して、もう一度お試しください。",
	}
}

// NewServerError はサーバーが報告したエラーを生成する。
// エラーエンベロープから抽出したメッセージをそのまま保持する。
func NewServerError(message string) *APIError {
	if message == "" {
		message = "Unknown Error"
	}
	return &APIError{
		Code:     ErrCodeServerRejected,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidResponseError はレスポンス解析失敗エラーを生成する。
func NewInvalidResponseError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResponse,
		Message:  fmt.Sprintf("サーバー応答の解析に失敗しました: %s", reason),
		Category: "system",
		Action:   "時間をおいて再度お試しください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUploadFailedError は画像アップロード失敗エラーを生成する。
func NewUploadFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUploadFailed,
		Message:  fmt.Sprintf("画像のアップロードに失敗しました: %s", reason),
		Category: "network",
		Action:   "画像ファイルを確認して、もう一度お試しください。",
	}
}
