package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/shiomura/bookroom/internal/book"
	"github.com/shiomura/bookroom/internal/snapshot"
)

// ErrNotFound marks a book id that does not resolve to a loadable snapshot.
var ErrNotFound = errors.New("book not found")

// BookCache loads snapshots by id and keeps the most recently used ones
// decoded in memory. Cached books are shared across requests and must be
// treated as immutable. Concurrent loads of the same id collapse into a
// single decode.
type BookCache struct {
	root  string
	lru   *lru.Cache[string, *book.Book]
	group singleflight.Group
}

// NewBookCache creates a cache over the snapshot directories under root,
// holding at most size decoded books.
func NewBookCache(root string, size int) (*BookCache, error) {
	c, err := lru.New[string, *book.Book](size)
	if err != nil {
		return nil, fmt.Errorf("create book cache: %w", err)
	}
	return &BookCache{root: root, lru: c}, nil
}

// Get returns the book for id, loading its snapshot on a cache miss.
// Unknown, invalid, and corrupt ids all report ErrNotFound; the reader
// has no way to distinguish them and no business leaking paths.
func (c *BookCache) Get(id string) (*book.Book, error) {
	if !validBookID(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if b, ok := c.lru.Get(id); ok {
		return b, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		if b, ok := c.lru.Get(id); ok {
			return b, nil
		}
		b, err := snapshot.Load(filepath.Join(c.root, id))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		c.lru.Add(id, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*book.Book), nil
}

// validBookID rejects anything that could escape the library root when
// joined to it. Ids are bare snapshot directory names.
func validBookID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return strings.HasSuffix(id, snapshot.DirSuffix)
}
