// Package model はドメインモデルを定義する。
package model

import "time"

// Reactions は投稿・コメントへのリアクション集計を表す。
// 値は常にサーバーの集計結果をそのまま保持し、クライアント側で加算しない。
type Reactions struct {
	Like    int `json:"like"`
	Dislike int `json:"dislike"`
}

// Post はユーザーの投稿を表す。
type Post struct {
	ID        string    `json:"_id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Reactions Reactions `json:"reactions"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment は投稿に紐づくコメントを表す。
type Comment struct {
	ID        string    `json:"_id"`
	PostID    string    `json:"post"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Reactions Reactions `json:"reactions"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionTarget はリアクション対象の種別を表す。
type ReactionTarget string

const (
	// ReactionTargetPost は投稿へのリアクション。
	ReactionTargetPost ReactionTarget = "Post"
	// ReactionTargetComment はコメントへのリアクション。
	ReactionTargetComment ReactionTarget = "Comment"
)

// ReactionEmoji はリアクションの種別を表す。
type ReactionEmoji string

const (
	// ReactionLike は「いいね」リアクション。
	ReactionLike ReactionEmoji = "like"
	// ReactionDislike は「よくないね」リアクション。
	ReactionDislike ReactionEmoji = "dislike"
)

// ImageInput は投稿・プロフィールに添付する画像の入力を表す。
// ローカルファイルのパスか、既にホストされているURLのどちらか一方を指定する。
// 型による判別であり、中身の検査は行わない。
type ImageInput struct {
	LocalPath string // アップロードが必要なローカルファイル
	URL       string // そのまま渡される既存のURL
}

// IsLocal はローカルファイルとしてアップロードが必要かどうかを返す。
func (i *ImageInput) IsLocal() bool {
	return i != nil && i.LocalPath != ""
}
