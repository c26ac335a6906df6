// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーのプロフィールを表す。
// サーバーが所有するデータの読み取りキャッシュであり、クライアント側で生成しない。
type User struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	AvatarURL     string `json:"avatarUrl"`
	CoverURL      string `json:"coverUrl"`
	AboutMe       string `json:"aboutMe"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Company       string `json:"company"`
	JobTitle      string `json:"jobTitle"`
	FacebookLink  string `json:"facebookLink"`
	InstagramLink string `json:"instagramLink"`
	LinkedinLink  string `json:"linkedinLink"`
	TwitterLink   string `json:"twitterLink"`
	FriendCount   int    `json:"friendCount"`
	PostCount     int    `json:"postCount"`

	// Friendship は「閲覧中ユーザーから見た」関係。対象ユーザーのレコードに
	// 非正規化して保持される。関係が存在しない場合はnil。
	Friendship *Friendship `json:"friendship,omitempty"`
}

// Author は投稿・コメントに埋め込まれる作者情報の非正規化サブセット。
type Author struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}
