// Package upload は外部アセットホストへの画像アップロードを提供する。
//
// 投稿・プロフィールに添付する画像は、ローカルファイルの場合のみ
// 事前にアセットホストへアップロードし、取得したURLをAPIに渡す。
// 既にURLである入力はそのまま通過させる（型による判別）。
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hitoshi/tomolink/internal/model"
)

// Uploader は画像アップロードのインターフェース。
// 機能キャッシュ（投稿・プロフィール）から利用する。
type Uploader interface {
	// Upload は画像入力を解決してホスト済みURLを返す。
	// nil入力は空文字列、URL入力はそのままのURL、ローカルファイルは
	// アップロード後のURLを返す。
	Upload(ctx context.Context, input *model.ImageInput) (string, error)
}

// assetUploader はUploaderの実装。
// cloudinary互換のunsignedアップロードエンドポイントを想定している。
type assetUploader struct {
	httpClient *http.Client
	uploadURL  string
	preset     string
	logger     *slog.Logger
}

// NewUploader はUploaderの新しいインスタンスを生成する。
func NewUploader(httpClient *http.Client, logger *slog.Logger, uploadURL, preset string) *assetUploader {
	return &assetUploader{
		httpClient: httpClient,
		uploadURL:  uploadURL,
		preset:     preset,
		logger:     logger,
	}
}

// uploadResponse はアセットホストのレスポンス。
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload は画像入力を解決してホスト済みURLを返す。
func (u *assetUploader) Upload(ctx context.Context, input *model.ImageInput) (string, error) {
	// 画像なし
	if input == nil {
		return "", nil
	}

	// 既存URLはアップロード不要でそのまま通過させる
	if !input.IsLocal() {
		return input.URL, nil
	}

	if u.uploadURL == "" {
		return "", model.NewUploadFailedError("UPLOAD_URL is not configured")
	}

	// multipartボディの構築
	file, err := os.Open(input.LocalPath)
	if err != nil {
		return "", model.NewUploadFailedError(err.Error())
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer pw.Close()
		defer mw.Close()
		if u.preset != "" {
			if err := mw.WriteField("upload_preset", u.preset); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		part, err := mw.CreateFormFile("file", filepath.Base(input.LocalPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, pr)
	if err != nil {
		return "", model.NewUploadFailedError(err.Error())
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		u.logger.Error("asset upload failed",
			slog.String("path", input.LocalPath),
			slog.String("error", err.Error()),
		)
		return "", model.NewUploadFailedError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", model.NewUploadFailedError(err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		u.logger.Error("asset host returned error status",
			slog.String("path", input.LocalPath),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", model.NewUploadFailedError(fmt.Sprintf("asset host returned status %d", resp.StatusCode))
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", model.NewUploadFailedError(err.Error())
	}
	if result.SecureURL == "" {
		return "", model.NewUploadFailedError("asset host response has no secure_url")
	}

	u.logger.Info("asset uploaded",
		slog.String("path", input.LocalPath),
		slog.String("url", result.SecureURL),
	)

	return result.SecureURL, nil
}
