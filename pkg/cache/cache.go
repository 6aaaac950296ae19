// Package cache provides an LRU cache for lowered translation units with
// msgpack disk persistence. Entries are keyed by the content hash of the
// source buffer, so a changed file never serves a stale graph.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-cpg/pkg/graph"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// snapshotVersion guards the on-disk format.
const snapshotVersion = 1

// Key derives the cache key for a source buffer.
func Key(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Entry is one cached export with its bookkeeping.
type Entry struct {
	Key        string        `msgpack:"key"`
	Unit       *graph.Export `msgpack:"unit"`
	AccessedAt time.Time     `msgpack:"accessed_at"`
	CreatedAt  time.Time     `msgpack:"created_at"`
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list is a doubly-linked list, most recently used at the front.
type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}

	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}

	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item

	if l.tail == nil {
		l.tail = item
	}
}

func (l *list) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}

	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

// Options configures the export cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int

	// OnEvict is called when an entry is evicted.
	OnEvict func(key string, unit *graph.Export)
}

// ExportCache is an in-memory LRU cache of lowered-unit exports with
// optional disk persistence.
type ExportCache struct {
	mu      sync.RWMutex
	items   map[string]*listItem
	lru     *list
	maxSize int
	onEvict func(key string, unit *graph.Export)
}

// New creates a new export cache with the given options.
func New(opts Options) *ExportCache {
	return &ExportCache{
		items:   make(map[string]*listItem),
		lru:     &list{},
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
	}
}

// Get retrieves an export by key.
func (c *ExportCache) Get(key string) (*graph.Export, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Unit, true
}

// Set stores an export, evicting the least recently used entry when full.
func (c *ExportCache) Set(key string, unit *graph.Export) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.Unit = unit
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		return
	}

	item := &listItem{
		Entry: Entry{
			Key:        key,
			Unit:       unit,
			AccessedAt: time.Now(),
			CreatedAt:  time.Now(),
		},
	}

	c.items[key] = item
	c.lru.pushFront(item)

	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *ExportCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}

	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.lru.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.lru.tail = item.prev
	}
	c.lru.len--

	delete(c.items, key)

	if c.onEvict != nil {
		c.onEvict(key, item.Unit)
	}
}

// Clear removes all entries from the cache.
func (c *ExportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
}

// Len returns the number of entries in the cache.
func (c *ExportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *ExportCache) evictIfNeeded() {
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		item := c.lru.removeBack()
		if item == nil {
			break
		}
		delete(c.items, item.Key)

		if c.onEvict != nil {
			c.onEvict(item.Key, item.Unit)
		}
	}
}

// snapshot is the on-disk msgpack structure.
type snapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// Save persists the cache to a writer using msgpack, least recently used
// first so that loading restores the recency order.
func (c *ExportCache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.items))
	for item := c.lru.tail; item != nil; item = item.prev {
		entries = append(entries, item.Entry)
	}

	if err := msgpack.NewEncoder(w).Encode(snapshot{Version: snapshotVersion, Entries: entries}); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return nil
}

// Load restores the cache from a reader.
func (c *ExportCache) Load(r io.Reader) error {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported cache version %d", snap.Version)
	}

	for _, e := range snap.Entries {
		c.Set(e.Key, e.Unit)
	}
	return nil
}

// SaveFile persists the cache to a file, creating parent directories.
func (c *ExportCache) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFile restores the cache from a file. A missing file is not an error.
func (c *ExportCache) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
