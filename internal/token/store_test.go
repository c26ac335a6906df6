package token

import (
	"testing"
)

// newTestStore はテスト用のインメモリStoreを生成する。
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(StoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

// TestStore_SaveAndLoad は保存したトークンが読み戻せることを検証する。
func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("token-abc"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "token-abc" {
		t.Errorf("Load = %q, want %q", got, "token-abc")
	}
}

// TestStore_LoadEmpty は未保存時に空文字列が返ることを検証する。
func TestStore_LoadEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "" {
		t.Errorf("Load = %q, want empty string", got)
	}
}

// TestStore_SaveOverwrites は上書き保存が効くことを検証する。
func TestStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("old-token"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.Save("new-token"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "new-token" {
		t.Errorf("Load = %q, want %q", got, "new-token")
	}
}

// TestStore_SaveEmptyToken は空トークンの保存が拒否されることを検証する。
func TestStore_SaveEmptyToken(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save(""); err == nil {
		t.Error("Save(\"\") should return an error")
	}
}

// TestStore_Clear は削除後にLoadが空文字列を返すことを検証する。
func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("token-abc"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "" {
		t.Errorf("Load after Clear = %q, want empty string", got)
	}
}

// TestStore_ClearWithoutSave は未保存状態のClearが成功することを検証する。
func TestStore_ClearWithoutSave(t *testing.T) {
	s := newTestStore(t)

	if err := s.Clear(); err != nil {
		t.Errorf("Clear on empty store should succeed, got: %v", err)
	}
}
