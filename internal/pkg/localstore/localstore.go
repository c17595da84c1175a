// Package localstore persists Meta tokens and synced Instagram posts as flat
// JSON files keyed by owner.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/nexoraai/nexora_server/internal/model"
)

const (
	TokensFile = "meta_tokens.json"
	PostsFile  = "ig_posts.json"
)

// Store serializes every read-modify-write and replaces files atomically.
type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// New creates dir and both files when missing.
func New(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	s := &Store{fs: fs, dir: dir}
	for _, name := range []string{TokensFile, PostsFile} {
		path := filepath.Join(dir, name)
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := afero.WriteFile(fs, path, []byte("{}"), 0o600); err != nil {
				return nil, fmt.Errorf("init %s: %w", name, err)
			}
		}
	}
	return s, nil
}

// readFile returns an empty map when the file is missing or corrupt.
func readFile[T any](s *Store, name string) map[string]T {
	out := map[string]T{}
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return map[string]T{}
	}
	return out
}

func (s *Store) writeFile(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	final := filepath.Join(s.dir, name)
	tmp := fmt.Sprintf("%s.tmp-%d", final, os.Getpid())
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Tokens returns the bundle of owner, or nil when not connected.
func (s *Store) Tokens(owner string) *model.MetaTokenBundle {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle, ok := readFile[model.MetaTokenBundle](s, TokensFile)[owner]
	if !ok {
		return nil
	}
	return &bundle
}

func (s *Store) SaveTokens(owner string, bundle *model.MetaTokenBundle) error {
	return s.UpdateTokens(owner, func(*model.MetaTokenBundle) (*model.MetaTokenBundle, error) {
		return bundle, nil
	})
}

// UpdateTokens applies fn to the current bundle (nil when absent) under the
// store lock and writes its result.
func (s *Store) UpdateTokens(owner string, fn func(current *model.MetaTokenBundle) (*model.MetaTokenBundle, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := readFile[model.MetaTokenBundle](s, TokensFile)
	var current *model.MetaTokenBundle
	if b, ok := all[owner]; ok {
		current = &b
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		delete(all, owner)
	} else {
		all[owner] = *next
	}
	return s.writeFile(TokensFile, all)
}

func (s *Store) Posts(igID string) *model.IGPostCache {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := readFile[model.IGPostCache](s, PostsFile)[igID]
	if !ok {
		return nil
	}
	return &cache
}

func (s *Store) SavePosts(igID string, cache *model.IGPostCache) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := readFile[model.IGPostCache](s, PostsFile)
	all[igID] = *cache
	return s.writeFile(PostsFile, all)
}
