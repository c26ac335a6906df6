package comment

import "github.com/hitoshi/tomolink/internal/model"

// applyCommentPage は取得済みコメントページをキャッシュへ適用する。
// エンティティはIDで丸ごと上書きし、親投稿のID順序リストは到着順を
// 反転したもので置き換える。件数と現在ページも投稿単位で上書きする。
func applyCommentPage(st *State, postID string, comments []*model.Comment, count, page int) {
	st.IsLoading = false
	st.Err = nil

	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		st.CommentsByID[c.ID] = c
		ids = append(ids, c.ID)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	st.CommentsByPost[postID] = ids
	st.TotalCommentsByPost[postID] = count
	st.CurrentPageByPost[postID] = page
}

// applyCommentUpdated は更新レスポンスの本文のみをインプレースで上書きする。
// キャッシュに無いコメントの更新は何も起こさない。
func applyCommentUpdated(st *State, commentID, content string) {
	st.IsLoading = false
	st.Err = nil

	c, ok := st.CommentsByID[commentID]
	if !ok {
		return
	}
	c.Content = content
}

// applyCommentReaction はコメントのリアクション集計をサーバーの値で
// 丸ごと置き換える。
func applyCommentReaction(st *State, commentID string, reactions model.Reactions) {
	st.IsLoading = false
	st.Err = nil

	c, ok := st.CommentsByID[commentID]
	if !ok {
		return
	}
	c.Reactions = reactions
}
