package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/narration-service/internal/core"
)

const (
	booksPrefix       = "books/"
	contentObjectName = "content.json"
	contentType       = "application/json"
	shortIDLength     = 8
)

// Static errors.
var (
	ErrIDEmpty    = errors.New("book id cannot be empty")
	ErrPagesEmpty = errors.New("book pages cannot be empty")
)

// Repo persists books as whole JSON documents in the object store, one per
// book id. A save replaces the stored document entirely; there is no partial
// update or versioning.
type Repo struct {
	store core.ObjectStore
	log   *logger.Logger
	now   func() time.Time
}

// NewRepo creates a book repository backed by the given object store.
func NewRepo(store core.ObjectStore, log *logger.Logger) *Repo {
	return &Repo{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// contentKey returns the storage key of the book's JSON document.
func contentKey(bookID string) string {
	return booksPrefix + bookID + "/" + contentObjectName
}

// Save validates and stores the book document, stamping the update time and,
// if absent, the creation time.
func (r *Repo) Save(ctx context.Context, b *Book) error {
	if b.ID == "" {
		return ErrIDEmpty
	}

	if len(b.Pages) == 0 {
		return ErrPagesEmpty
	}

	if b.Title == "" {
		b.Title = "Untitled"
	}

	now := r.now().Format(time.RFC3339)
	if b.CreatedAt == "" {
		b.CreatedAt = now
	}

	b.UpdatedAt = now
	b.PageCount = len(b.Pages)

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal book '%s': %w", b.ID, err)
	}

	err = r.store.Upload(ctx, contentKey(b.ID), data, contentType)
	if err != nil {
		return fmt.Errorf("failed to store book '%s': %w", b.ID, err)
	}

	r.log.Info("Saved book %s (%d pages)", b.ID, b.PageCount)

	return nil
}

// Get loads one full book document by id.
func (r *Repo) Get(ctx context.Context, bookID string) (*Book, error) {
	if bookID == "" {
		return nil, ErrIDEmpty
	}

	data, err := r.store.Download(ctx, contentKey(bookID))
	if err != nil {
		return nil, fmt.Errorf("failed to load book '%s': %w", bookID, err)
	}

	var b Book

	err = json.Unmarshal(data, &b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode book '%s': %w", bookID, err)
	}

	return &b, nil
}

// List returns a summary for every stored book. A book whose document cannot
// be read or decoded degrades to a bare summary instead of failing the whole
// listing.
func (r *Repo) List(ctx context.Context) ([]Summary, error) {
	keys, err := r.store.List(ctx, booksPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	summaries := make([]Summary, 0, len(keys))

	for _, bookID := range bookIDsFromKeys(keys) {
		summaries = append(summaries, r.summarize(ctx, bookID))
	}

	return summaries, nil
}

func (r *Repo) summarize(ctx context.Context, bookID string) Summary {
	b, err := r.Get(ctx, bookID)
	if err != nil {
		r.log.Warn("Listing degraded summary for book %s: %v", bookID, err)

		return Summary{
			ID:         bookID,
			Title:      "Book " + shortID(bookID),
			CoverImage: "",
			PageCount:  0,
			CreatedAt:  "",
			UpdatedAt:  "",
		}
	}

	return Summary{
		ID:         b.ID,
		Title:      b.Title,
		CoverImage: b.CoverImage,
		PageCount:  len(b.Pages),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// bookIDsFromKeys extracts unique book ids from content-document keys,
// preserving first-seen order.
func bookIDsFromKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	ids := make([]string, 0, len(keys))

	for _, key := range keys {
		rest, found := strings.CutPrefix(key, booksPrefix)
		if !found {
			continue
		}

		bookID, object, found := strings.Cut(rest, "/")
		if !found || object != contentObjectName || bookID == "" {
			continue
		}

		if _, dup := seen[bookID]; dup {
			continue
		}

		seen[bookID] = struct{}{}
		ids = append(ids, bookID)
	}

	return ids
}

func shortID(bookID string) string {
	if len(bookID) <= shortIDLength {
		return bookID
	}

	return bookID[:shortIDLength]
}
