package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IsValid はアクセストークンがまだ有効かどうかをローカルで判定する。
// JWTのクレームをデコードし、exp（有効期限）が現在時刻より後であることを確認する。
// 署名の検証はサーバーの責務であり、ここでは行わない。
// デコード失敗、expクレーム欠落、期限切れはいずれも無効として扱う。
func IsValid(accessToken string, now time.Time) bool {
	if accessToken == "" {
		return false
	}

	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.After(now)
}
