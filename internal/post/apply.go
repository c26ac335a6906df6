package post

import "github.com/hitoshi/tomolink/internal/model"

// applyReset は表示中のビューを破棄する。
// ページ1の取得前に呼ばれ、別ビューのIDが混入することを防ぐ。
func applyReset(st *State) {
	st.PostsByID = map[string]*model.Post{}
	st.CurrentPagePosts = nil
}

// applyPostPage は取得済みページをキャッシュへ適用する。
// エンティティはIDで丸ごと上書きし、順序リストには未出現のIDのみを
// 末尾へ追加する。TotalPostsはレスポンスのcountで上書きする。
func applyPostPage(st *State, posts []*model.Post, count int) {
	st.IsLoading = false
	st.Err = nil

	for _, p := range posts {
		st.PostsByID[p.ID] = p
		if !containsID(st.CurrentPagePosts, p.ID) {
			st.CurrentPagePosts = append(st.CurrentPagePosts, p.ID)
		}
	}
	st.TotalPosts = count
}

// applyPostCreated は新規投稿をキャッシュへ適用する。
// 表示リストがちょうどページサイズの倍数のとき末尾のIDを1つ退避させてから
// 新規IDを先頭へ挿入し、表示ウィンドウをページサイズに抑える。
func applyPostCreated(st *State, p *model.Post, pageSize int) {
	st.IsLoading = false
	st.Err = nil

	if pageSize > 0 && len(st.CurrentPagePosts) > 0 && len(st.CurrentPagePosts)%pageSize == 0 {
		st.CurrentPagePosts = st.CurrentPagePosts[:len(st.CurrentPagePosts)-1]
	}
	st.PostsByID[p.ID] = p
	st.CurrentPagePosts = append([]string{p.ID}, st.CurrentPagePosts...)
}

// applyPostDeleted は削除済み投稿のIDを順序リストから取り除く。
// マップ上のエンティティは残す（参照されないため無害）。
// リストに存在しないIDは何も起こさない。
func applyPostDeleted(st *State, postID string) {
	st.IsLoading = false
	st.Err = nil

	filtered := st.CurrentPagePosts[:0]
	for _, id := range st.CurrentPagePosts {
		if id != postID {
			filtered = append(filtered, id)
		}
	}
	st.CurrentPagePosts = filtered
}

// applyPostUpdated は更新レスポンスの本文と画像のみをインプレースで
// 上書きする。キャッシュに無い投稿の更新は何も起こさない。
func applyPostUpdated(st *State, updated *model.Post) {
	st.IsLoading = false
	st.Err = nil

	p, ok := st.PostsByID[updated.ID]
	if !ok {
		return
	}
	p.Content = updated.Content
	p.Image = updated.Image
}

// applyReaction は投稿のリアクション集計をサーバーの値で丸ごと置き換える。
func applyReaction(st *State, postID string, reactions model.Reactions) {
	st.IsLoading = false
	st.Err = nil

	p, ok := st.PostsByID[postID]
	if !ok {
		return
	}
	p.Reactions = reactions
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
