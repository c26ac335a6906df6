// Package model はドメインモデルを定義する。
package model

// FriendshipStatus は友達関係の状態を表す。
type FriendshipStatus string

const (
	// FriendshipStatusPending は申請送信済み・未応答の状態。
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted は友達として承認済みの状態。
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	// FriendshipStatusDeclined は申請が拒否された状態。
	FriendshipStatusDeclined FriendshipStatus = "declined"
)

// Friendship は2ユーザー間の有向の友達関係を表す。
// 関係が存在しない場合はnilで表現される。
type Friendship struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Status FriendshipStatus `json:"status"`
}
