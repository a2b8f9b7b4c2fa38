// Package document aggregates a user's drive files into plain-text
// documents ready for display or LLM grounding.
package document

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/aoki/docquery/internal/extract"
	"github.com/aoki/docquery/internal/gdrive"
	"github.com/aoki/docquery/internal/model"
)

const (
	cacheSize = 512
	cacheTTL  = 30 * time.Minute

	retryAttempts = 3
	retryBase     = 500 * time.Millisecond
	retryJitter   = 100 * time.Millisecond
)

type cacheEntry struct {
	content  string
	modified time.Time
}

// Fetcher retrieves and extracts a single file's text content. Results are
// cached by file ID; an entry is reused only while the remote modifiedTime
// matches, so edits invalidate immediately and the TTL bounds staleness for
// everything else.
type Fetcher struct {
	cache     *expirable.LRU[string, cacheEntry]
	retryBase time.Duration
}

// NewFetcher creates a Fetcher with a bounded, TTL-evicting cache.
func NewFetcher() *Fetcher {
	return newFetcher(cacheTTL)
}

func newFetcher(ttl time.Duration) *Fetcher {
	return &Fetcher{
		cache:     expirable.NewLRU[string, cacheEntry](cacheSize, nil, ttl),
		retryBase: retryBase,
	}
}

// Fetch returns the file's extracted text, from cache when fresh. Remote
// failures are returned as errors; extraction failures degrade to a
// placeholder string so a bad document cannot fail a whole aggregation.
func (f *Fetcher) Fetch(ctx context.Context, api gdrive.API, file model.RemoteFile) (string, error) {
	if entry, ok := f.cache.Get(file.ID); ok && entry.modified.Equal(file.ModifiedTime) {
		return entry.content, nil
	}

	content, err := f.fetch(ctx, api, file)
	if err != nil {
		return "", err
	}
	if content != "" {
		f.cache.Add(file.ID, cacheEntry{content: content, modified: file.ModifiedTime})
	}
	return content, nil
}

func (f *Fetcher) fetch(ctx context.Context, api gdrive.API, file model.RemoteFile) (string, error) {
	switch extract.KindForMIME(file.MIMEType) {
	case extract.KindGoogleDoc:
		var doc *docs.Document
		err := f.withRetry(ctx, func(ctx context.Context) error {
			var err error
			doc, err = api.Document(ctx, file.ID)
			return err
		})
		if err != nil {
			return "", err
		}
		return extract.GoogleDoc(doc), nil

	case extract.KindGoogleSheet:
		var ss *sheets.Spreadsheet
		err := f.withRetry(ctx, func(ctx context.Context) error {
			var err error
			ss, err = api.Spreadsheet(ctx, file.ID)
			return err
		})
		if err != nil {
			return "", err
		}
		return extract.Spreadsheet(ss), nil

	case extract.KindGoogleSlides:
		// Slides have no structured read API worth walking; Drive's
		// plain-text export already flattens speaker notes and shapes.
		b, err := f.export(ctx, api, file.ID, extract.MIMEText)
		if err != nil {
			return "", err
		}
		return string(b), nil

	case extract.KindPDF:
		b, err := f.download(ctx, api, file.ID)
		if err != nil {
			return "", err
		}
		text, err := extract.PDF(b)
		if err != nil {
			return extract.FailurePlaceholder(err), nil
		}
		return text, nil

	case extract.KindPlainText:
		b, err := f.download(ctx, api, file.ID)
		if err != nil {
			return "", err
		}
		return string(b), nil

	case extract.KindWord:
		b, err := f.download(ctx, api, file.ID)
		if err != nil {
			return "", err
		}
		text, err := extract.Docx(b)
		if err != nil {
			return extract.FailurePlaceholder(err), nil
		}
		return text, nil

	case extract.KindOfficeBinary:
		return extract.NotAvailablePlaceholder(file.MIMEType), nil

	default:
		return extract.UnsupportedPlaceholder(file.MIMEType), nil
	}
}

func (f *Fetcher) download(ctx context.Context, api gdrive.API, fileID string) ([]byte, error) {
	var b []byte
	err := f.withRetry(ctx, func(ctx context.Context) error {
		var err error
		b, err = api.Download(ctx, fileID)
		return err
	})
	return b, err
}

func (f *Fetcher) export(ctx context.Context, api gdrive.API, fileID, mimeType string) ([]byte, error) {
	var b []byte
	err := f.withRetry(ctx, func(ctx context.Context) error {
		var err error
		b, err = api.Export(ctx, fileID, mimeType)
		return err
	})
	return b, err
}

// withRetry runs op, retrying rate-limit and transient-availability errors
// with jittered exponential backoff. Everything else fails on the first
// attempt.
func (f *Fetcher) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(retryAttempts, retry.WithJitter(retryJitter, retry.NewExponential(f.retryBase)))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if isRateLimited(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusServiceUnavailable
	}
	return false
}
