// Package store keeps the set of classified articles in a JSON file.
//
// Every Open evicts articles that have outlived the retention window and
// writes the result straight back. Writes go to a temporary file that is
// renamed over the original, so a failed write never damages the old file.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/pubdate"
)

// DefaultRetentionDays is how many whole days an article is kept.
const DefaultRetentionDays = 7

// file is the on-disk layout.
type file struct {
	ClassifiedArticles []string                   `json:"classified_articles"`
	Articles           map[string]newscat.Article `json:"articles"`
}

type (
	// Store owns the seen set and the classified records.
	//
	// Keys of records and members of seen are the same after every Open and Save.
	Store struct {
		path           string
		retentionDays  int
		freshOnCorrupt bool
		now            func() time.Time

		mu      sync.Mutex
		seen    map[string]struct{}
		records map[string]newscat.Article
		last    Stats
	}

	// Option configures a Store.
	Option func(*Store)

	// Stats describes what happened while loading.
	Stats struct {
		Loaded  int
		Evicted int
	}
)

// WithRetentionDays overrides the retention window.
func WithRetentionDays(days int) Option {
	return func(s *Store) {
		s.retentionDays = days
	}
}

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithFreshOnCorrupt makes Open move a corrupt file aside and start empty
// instead of failing.
func WithFreshOnCorrupt(fresh bool) Option {
	return func(s *Store) {
		s.freshOnCorrupt = fresh
	}
}

// Open loads the store at path.
//
// A missing or empty file yields an empty store. A file that isn't valid JSON
// returns [newscat.ErrStoreCorrupt] unless [WithFreshOnCorrupt] is set.
// After loading, expired articles are evicted and the file is rewritten.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:          path,
		retentionDays: DefaultRetentionDays,
		now:           time.Now,
		seen:          make(map[string]struct{}),
		records:       make(map[string]newscat.Article),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.load(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// LastLoad reports what the most recent Open or Reload did.
func (s *Store) LastLoad() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// Reload re-reads the backing file, discarding in-memory state, and runs the
// eviction sweep again.
func (s *Store) Reload(ctx context.Context) (Stats, error) {
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen = make(map[string]struct{})
	s.records = make(map[string]newscat.Article)
	s.last = Stats{}

	f, err := s.read()
	if errors.Is(err, newscat.ErrStoreNotFound) {
		slog.InfoContext(ctx, "no store file found, starting fresh", "path", s.path)
		return Stats{}, nil
	}
	if errors.Is(err, newscat.ErrStoreCorrupt) && s.freshOnCorrupt {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if rerr := os.Rename(s.path, aside); rerr != nil {
			return Stats{}, fmt.Errorf("error moving corrupt store aside: %w", rerr)
		}
		slog.ErrorContext(ctx, "store file was corrupt, starting fresh", "path", s.path, "moved_to", aside, "error", err)
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	if f == nil {
		slog.InfoContext(ctx, "store file is empty, starting fresh", "path", s.path)
		return Stats{}, nil
	}

	s.populate(ctx, *f)
	evicted := s.evict(ctx)
	if err := s.save(); err != nil {
		return Stats{}, err
	}

	s.last = Stats{Loaded: len(s.records), Evicted: evicted}
	slog.InfoContext(ctx, "loaded classified articles", "count", len(s.records), "evicted", evicted)
	return s.last, nil
}

// read returns the decoded file, nil for an empty file.
func (s *Store) read() (*file, error) {
	byts, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, newscat.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading store: %w", err)
	}
	if len(strings.TrimSpace(string(byts))) == 0 {
		return nil, nil
	}

	var f file
	if err := json.Unmarshal(byts, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", newscat.ErrStoreCorrupt, s.path, err)
	}

	return &f, nil
}

// populate fills the maps from f, reconciling the two halves so they agree.
func (s *Store) populate(ctx context.Context, f file) {
	listed := make(map[string]struct{}, len(f.ClassifiedArticles))
	for _, link := range f.ClassifiedArticles {
		listed[link] = struct{}{}
	}

	for key, a := range f.Articles {
		if a.Link == "" {
			a.Link = key
		}
		if a.Category == "" {
			slog.WarnContext(ctx, "article does not have a category", "title", a.Title, "link", key)
		}
		if _, ok := listed[key]; !ok {
			slog.WarnContext(ctx, "article missing from classified list, adding it", "link", key)
		}
		s.records[key] = a
		s.seen[key] = struct{}{}
	}

	for link := range listed {
		if _, ok := s.records[link]; !ok {
			slog.WarnContext(ctx, "classified link has no article, dropping it", "link", link)
		}
	}
}

// evict removes every record older than the retention window.
func (s *Store) evict(ctx context.Context) int {
	var (
		now     = s.now().UTC()
		evicted int
	)
	for link, a := range s.records {
		p := pubdate.Parse(a.Published)
		if err := p.Err(); err != nil {
			slog.WarnContext(ctx, "unparseable published date, age unknown so keeping it", "link", link, "error", err)
			continue
		}
		if !pubdate.Expired(now, p, s.retentionDays) {
			continue
		}

		slog.InfoContext(ctx, "removing article older than retention", "title", a.Title, "days", s.retentionDays)
		delete(s.records, link)
		delete(s.seen, link)
		evicted++
	}

	return evicted
}

// Save writes the current state to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save()
}

func (s *Store) save() error {
	f := file{
		ClassifiedArticles: make([]string, 0, len(s.seen)),
		Articles:           make(map[string]newscat.Article, len(s.records)),
	}
	for link := range s.records {
		if _, ok := s.seen[link]; !ok {
			continue
		}
		f.ClassifiedArticles = append(f.ClassifiedArticles, link)
		f.Articles[link] = s.records[link]
	}
	sort.Strings(f.ClassifiedArticles)

	byts, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: error encoding store: %s", newscat.ErrPersistWriteFailed, err)
	}
	if err := writeAtomic(s.path, byts); err != nil {
		return fmt.Errorf("%w: %s", newscat.ErrPersistWriteFailed, err)
	}

	return nil
}

// fileMode is the mode of a newly created store file.
const fileMode fs.FileMode = 0o644

// writeAtomic writes to a sibling temp file and renames it over path. The
// file keeps the mode of the one it replaces.
func writeAtomic(path string, byts []byte) (err error) {
	mode := fileMode
	if info, serr := os.Stat(path); serr == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %s", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(byts); err != nil {
		return fmt.Errorf("error writing temp file: %s", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("error setting temp file mode: %s", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("error syncing temp file: %s", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file: %s", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing store file: %s", err)
	}

	return nil
}

// Seen reports whether link has already been through classification.
func (s *Store) Seen(link string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[link]
	return ok
}

// MarkSeen records link as processed without a record. Until a record is
// inserted the link is not written to disk.
func (s *Store) MarkSeen(link string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[link] = struct{}{}
}

// Unmark forgets a link marked with MarkSeen that never got a record.
func (s *Store) Unmark(link string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[link]; ok {
		return
	}
	delete(s.seen, link)
}

// Insert adds a classified article and marks its link seen.
func (s *Store) Insert(a newscat.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[a.Link] = a
	s.seen[a.Link] = struct{}{}
}

// Len is the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Article returns the record for link.
func (s *Store) Article(link string) (newscat.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.records[link]
	return a, ok
}

// Articles returns a copy of every record, newest first.
func (s *Store) Articles() []newscat.Article {
	s.mu.Lock()
	articles := make([]newscat.Article, 0, len(s.records))
	for _, a := range s.records {
		articles = append(articles, a)
	}
	s.mu.Unlock()

	sortNewest(articles)
	return articles
}

// ListByCategory groups a snapshot of the records by category, newest first
// within each category. Records without a category are grouped under "".
func (s *Store) ListByCategory() map[string][]newscat.Article {
	grouped := make(map[string][]newscat.Article)
	for _, a := range s.Articles() {
		grouped[a.Category] = append(grouped[a.Category], a)
	}

	return grouped
}

// Links returns the seen links in sorted order.
func (s *Store) Links() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := make([]string, 0, len(s.seen))
	for link := range s.seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

func sortNewest(articles []newscat.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		pi, pj := pubdate.Parse(articles[i].Published), pubdate.Parse(articles[j].Published)
		if pubdate.Newer(pi, pj) {
			return true
		}
		if pubdate.Newer(pj, pi) {
			return false
		}
		return articles[i].Link < articles[j].Link
	})
}
