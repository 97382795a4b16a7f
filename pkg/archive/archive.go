package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/vango-dev/democrat/pkg/codec"
	"github.com/vango-dev/democrat/pkg/democrat"
)

// ErrNotFound is returned when an object doesn't exist.
var ErrNotFound = errors.New("archive: object not found")

// ErrTooLarge is returned when an object exceeds the size limit.
var ErrTooLarge = errors.New("archive: object too large")

// ErrInvalidKey is returned for a key that is empty, absolute or escapes the
// store root.
var ErrInvalidKey = errors.New("archive: invalid key")

// Store is the interface for archive storage backends.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// Get returns the object stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the objects whose keys start with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete removes the object under key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// Object describes a stored object.
type Object struct {
	Key      string
	Size     int64
	Modified time.Time
}

// Kind is the content of an archived object.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindPatches  Kind = "patches"
)

// Entry is an archived object with its parsed key.
type Entry struct {
	Object
	Store     string
	Kind      Kind
	Format    codec.Format
	CreatedAt time.Time
}

const timeLayout = "20060102T150405.000000000Z"

// Archive encodes snapshots and patches with the codec package and keeps
// them in a Store.
type Archive struct {
	store   Store
	format  codec.Format
	maxSize int64
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithFormat sets the encoding of saved objects. Default: msgpack.
func WithFormat(f codec.Format) Option {
	return func(a *Archive) { a.format = f }
}

// WithMaxSize rejects encoded objects larger than n bytes with ErrTooLarge.
// Default: no limit.
func WithMaxSize(n int64) Option {
	return func(a *Archive) { a.maxSize = n }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) { a.logger = logger }
}

// WithClock overrides the clock used to stamp keys.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// New returns an Archive over store.
func New(store Store, opts ...Option) *Archive {
	a := &Archive{
		store:  store,
		format: codec.FormatMsgPack,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the underlying backend.
func (a *Archive) Store() Store { return a.store }

// Format returns the encoding of saved objects.
func (a *Archive) Format() codec.Format { return a.format }

// SaveSnapshot encodes snap and stores it under a new key for storeName.
func (a *Archive) SaveSnapshot(ctx context.Context, storeName string, snap *democrat.Snapshot) (string, error) {
	data, err := codec.EncodeSnapshot(a.format, storeName, snap)
	if err != nil {
		return "", fmt.Errorf("archive: encode snapshot: %w", err)
	}
	return a.put(ctx, storeName, KindSnapshot, data)
}

// SavePatches encodes patches and stores them under a new key for storeName.
func (a *Archive) SavePatches(ctx context.Context, storeName string, patches []democrat.Patch) (string, error) {
	data, err := codec.EncodePatches(a.format, storeName, patches)
	if err != nil {
		return "", fmt.Errorf("archive: encode patches: %w", err)
	}
	return a.put(ctx, storeName, KindPatches, data)
}

func (a *Archive) put(ctx context.Context, storeName string, kind Kind, data []byte) (string, error) {
	if a.maxSize > 0 && int64(len(data)) > a.maxSize {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), a.maxSize)
	}
	key := Key(storeName, kind, a.format, a.now())
	if err := a.store.Put(ctx, key, a.format.ContentType(), data); err != nil {
		return "", fmt.Errorf("archive: put %s: %w", key, err)
	}
	a.logger.Debug("archived object", "key", key, "kind", kind, "bytes", len(data))
	return key, nil
}

// LoadSnapshot reads and decodes the snapshot stored under key.
func (a *Archive) LoadSnapshot(ctx context.Context, key string) (*democrat.Snapshot, error) {
	f, data, err := a.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return codec.DecodeSnapshot(f, data)
}

// LoadPatches reads and decodes the patches stored under key.
func (a *Archive) LoadPatches(ctx context.Context, key string) ([]democrat.Patch, error) {
	f, data, err := a.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return codec.DecodePatches(f, data)
}

func (a *Archive) get(ctx context.Context, key string) (codec.Format, []byte, error) {
	f, err := codec.FormatForPath(key)
	if err != nil {
		return "", nil, err
	}
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return "", nil, err
	}
	return f, data, nil
}

// Entries lists the archived objects of storeName, oldest first. Objects
// whose keys were not written by an Archive are skipped.
func (a *Archive) Entries(ctx context.Context, storeName string) ([]Entry, error) {
	objs, err := a.store.List(ctx, storeName+"/")
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(objs))
	for _, obj := range objs {
		e, ok := ParseKey(obj.Key)
		if !ok || e.Store != storeName {
			continue
		}
		e.Object = obj
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// Latest returns the newest entry of the given kind, or ErrNotFound.
func (a *Archive) Latest(ctx context.Context, storeName string, kind Kind) (Entry, error) {
	entries, err := a.Entries(ctx, storeName)
	if err != nil {
		return Entry{}, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == kind {
			return entries[i], nil
		}
	}
	return Entry{}, fmt.Errorf("%w: no %s for store %q", ErrNotFound, kind, storeName)
}

// LatestSnapshot loads the newest snapshot of storeName.
func (a *Archive) LatestSnapshot(ctx context.Context, storeName string) (*democrat.Snapshot, error) {
	e, err := a.Latest(ctx, storeName, KindSnapshot)
	if err != nil {
		return nil, err
	}
	return a.LoadSnapshot(ctx, e.Key)
}

// Prune deletes all but the newest keep entries of each kind for storeName
// and returns the number deleted.
func (a *Archive) Prune(ctx context.Context, storeName string, keep int) (int, error) {
	entries, err := a.Entries(ctx, storeName)
	if err != nil {
		return 0, err
	}
	seen := make(map[Kind]int)
	deleted := 0
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		seen[e.Kind]++
		if seen[e.Kind] <= keep {
			continue
		}
		if err := a.store.Delete(ctx, e.Key); err != nil {
			return deleted, fmt.Errorf("archive: delete %s: %w", e.Key, err)
		}
		deleted++
	}
	if deleted > 0 {
		a.logger.Info("pruned archive", "store", storeName, "deleted", deleted, "keep", keep)
	}
	return deleted, nil
}

// Key returns the object key for an archived object.
func Key(storeName string, kind Kind, f codec.Format, at time.Time) string {
	return storeName + "/" + at.UTC().Format(timeLayout) + "." + string(kind) + f.Ext()
}

// ParseKey splits a key written by Key.
func ParseKey(key string) (Entry, bool) {
	dir, file := path.Split(key)
	if dir == "" {
		return Entry{}, false
	}
	parts := strings.Split(file, ".")
	if len(parts) != 4 {
		return Entry{}, false
	}
	at, err := time.Parse(timeLayout, parts[0]+"."+parts[1])
	if err != nil {
		return Entry{}, false
	}
	kind := Kind(parts[2])
	if kind != KindSnapshot && kind != KindPatches {
		return Entry{}, false
	}
	f, err := codec.ParseFormat(parts[3])
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Object:    Object{Key: key},
		Store:     strings.TrimSuffix(dir, "/"),
		Kind:      kind,
		Format:    f,
		CreatedAt: at,
	}, true
}

// cleanKey validates key and returns it in slash form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}
