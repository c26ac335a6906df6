// Package token はアクセストークンのローカル永続化と有効性検証を提供する。
//
// トークンはBadgerDB（組み込みKVストア）内の固定キーに保存され、
// プロセスを跨いでセッションを復元するために使用される。
package token

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// storageKey はアクセストークンを保存する固定キー。
var storageKey = []byte("session/access_token")

// StoreConfig はStoreの設定を保持する。
type StoreConfig struct {
	// Dir はBadgerDBのデータディレクトリ。InMemoryがtrueの場合は無視される。
	Dir string
	// InMemory はディスク永続化なしのインメモリモードを有効にする。テスト用。
	InMemory bool
}

// Store はアクセストークンのローカルストア。
type Store struct {
	db *badger.DB
}

// Open はStoreを開く。
// ディレクトリが存在しない場合は作成される。
func Open(cfg StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		// インメモリモードはディレクトリ指定と併用できない
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// BadgerDB内部ログは抑止する（アプリ側のslogに一本化）
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close はストアを閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Save はアクセストークンを固定キーに保存する。
func (s *Store) Save(accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("access token is required")
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey, []byte(accessToken))
	})
	if err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

// Load は保存されたアクセストークンを返す。
// 保存されていない場合は空文字列を返す（エラーにはしない）。
func (s *Store) Load() (string, error) {
	var accessToken string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			accessToken = string(val)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to load access token: %w", err)
	}
	return accessToken, nil
}

// Clear は保存されたアクセストークンを削除する。
// 保存されていない場合も成功として扱う。
func (s *Store) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storageKey)
	})
	if err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	return nil
}
