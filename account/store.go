// Package account owns the launcher's credential store and the
// Microsoft account flow that fills it: browser login, auth-code
// receipt, token exchange and refresh.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/renameio/v2"
)

// ErrAccountNotFound reports an operation referencing an unknown
// account id.
var ErrAccountNotFound = errors.New("account not found")

// DefaultCacheWindow is how long a loaded accounts document stays
// authoritative in memory, and how long a write may sit dirty before
// the write-behind flush.
const DefaultCacheWindow = 100 * time.Millisecond

type Microsoft struct {
	RefreshToken string `json:"refresh_token"`
	ExpiresOn    int64  `json:"expires_on"`
}

type Minecraft struct {
	AccessToken string `json:"access_token"`
	ExpiresOn   int64  `json:"expires_on"`
	Username    string `json:"username"`
	UUID        string `json:"uuid"`
}

type Account struct {
	Microsoft Microsoft `json:"microsoft"`
	Minecraft Minecraft `json:"minecraft"`
}

// document is the accounts file shape: a generated-id map plus the
// next id serial.
type document struct {
	Next     int                `json:"next"`
	Accounts map[string]Account `json:"accounts"`
}

// Store is the accounts file with a short-lived in-memory cache and
// write-behind persistence. Reads within the cache window see the
// cached document; a write marks it dirty and (re)arms a flush timer.
// Call Flush or Close before process exit so the last write is not
// lost.
type Store struct {
	Path   string
	Window time.Duration // defaults to DefaultCacheWindow

	mu     sync.Mutex
	doc    *document
	loaded time.Time
	dirty  bool
	timer  *time.Timer
}

func (s *Store) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultCacheWindow
}

// load returns the cached document, rereading the file when the cache
// window has lapsed. A dirty document is never reread, it is the
// authoritative copy until flushed. An absent file is an empty
// document, not an error.
func (s *Store) load() (*document, error) {
	if s.doc != nil && (s.dirty || time.Since(s.loaded) < s.window()) {
		return s.doc, nil
	}
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.doc = &document{Next: 1, Accounts: map[string]Account{}}
		s.loaded = time.Now()
		return s.doc, nil
	}
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %q: %w", s.Path, err)
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string]Account{}
	}
	if doc.Next < 1 {
		doc.Next = 1
	}
	s.doc = &doc
	s.loaded = time.Now()
	return s.doc, nil
}

// markDirty arms the write-behind timer. The flush runs one cache
// window after the most recent write.
func (s *Store) markDirty() {
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window(), func() {
		if err := s.Flush(); err != nil {
			log.Error("flush accounts", "path", s.Path, "err", err)
		}
	})
}

// Flush writes the document to disk atomically if it is dirty.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if !s.dirty || s.doc == nil {
		return nil
	}
	b, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	if err := renameio.WriteFile(s.Path, b, 0600); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Close flushes any pending write and stops the flush timer.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return s.flushLocked()
}

// All returns the stored accounts keyed by id.
func (s *Store) All() (map[string]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Account, len(doc.Accounts))
	for id, acc := range doc.Accounts {
		out[id] = acc
	}
	return out, nil
}

// Get returns one account by id.
func (s *Store) Get(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Account{}, err
	}
	acc, ok := doc.Accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: %q", ErrAccountNotFound, id)
	}
	return acc, nil
}

// Add stores acc under a generated id and returns the id.
func (s *Store) Add(acc Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("a-%d", doc.Next)
	doc.Accounts[id] = acc
	doc.Next++
	s.markDirty()
	return id, nil
}

// Update replaces the account stored under id.
func (s *Store) Update(id string, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Accounts[id]; !ok {
		return fmt.Errorf("%w: %q", ErrAccountNotFound, id)
	}
	doc.Accounts[id] = acc
	s.markDirty()
	return nil
}

// Remove deletes the account stored under id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Accounts[id]; !ok {
		return fmt.Errorf("%w: %q", ErrAccountNotFound, id)
	}
	delete(doc.Accounts, id)
	s.markDirty()
	return nil
}
