package gdrive

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/aoki/docquery/internal/model"
)

// FakeFile is a file held by the Fake API.
type FakeFile struct {
	Meta    model.RemoteFile
	Content []byte
	Doc     *docs.Document
	Sheet   *sheets.Spreadsheet
	Export  []byte
}

// Fake is an in-memory API implementation for tests and dev mode. It
// supports per-file error injection and counts remote calls so cache and
// retry behavior can be asserted.
type Fake struct {
	mu    sync.Mutex
	files map[string]*FakeFile

	// Error injection
	ListErr error
	// Errs returns the error to inject for a file, by ID. The same error is
	// returned for every operation on that file.
	Errs map[string]error
	// ErrsOnce injects the error only for the first N calls on that file.
	ErrsOnce map[string]int

	// Call counters, by file ID
	MetaCalls     map[string]int
	DownloadCalls map[string]int
	ListCalls     int
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{
		files:         make(map[string]*FakeFile),
		Errs:          make(map[string]error),
		ErrsOnce:      make(map[string]int),
		MetaCalls:     make(map[string]int),
		DownloadCalls: make(map[string]int),
	}
}

// Add registers a file with the fake.
func (f *Fake) Add(file *FakeFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[file.Meta.ID] = file
}

func (f *Fake) injectedErr(fileID string) error {
	if n, ok := f.ErrsOnce[fileID]; ok && n > 0 {
		f.ErrsOnce[fileID] = n - 1
		return f.Errs[fileID]
	}
	if _, ok := f.ErrsOnce[fileID]; ok {
		return nil
	}
	return f.Errs[fileID]
}

func (f *Fake) ListFiles(ctx context.Context, query string) ([]model.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	term := freeTextTerm(query)
	files := []model.RemoteFile{}
	for _, file := range f.files {
		if term != "" && !strings.Contains(strings.ToLower(file.Meta.Name), strings.ToLower(term)) {
			continue
		}
		files = append(files, file.Meta)
	}
	return files, nil
}

func (f *Fake) FileMeta(ctx context.Context, fileID string) (*model.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MetaCalls[fileID]++
	if err := f.injectedErr(fileID); err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok {
		return nil, errNotFound(fileID)
	}
	meta := file.Meta
	return &meta, nil
}

func (f *Fake) Download(ctx context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DownloadCalls[fileID]++
	if err := f.injectedErr(fileID); err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok {
		return nil, errNotFound(fileID)
	}
	return file.Content, nil
}

func (f *Fake) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injectedErr(fileID); err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok {
		return nil, errNotFound(fileID)
	}
	return file.Export, nil
}

func (f *Fake) Document(ctx context.Context, fileID string) (*docs.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injectedErr(fileID); err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok || file.Doc == nil {
		return nil, errNotFound(fileID)
	}
	return file.Doc, nil
}

func (f *Fake) Spreadsheet(ctx context.Context, fileID string) (*sheets.Spreadsheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injectedErr(fileID); err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok || file.Sheet == nil {
		return nil, errNotFound(fileID)
	}
	return file.Sheet, nil
}

// freeTextTerm extracts the term of a "name contains '...'" clause so the
// fake can approximate drive-side filtering.
func freeTextTerm(query string) string {
	const marker = "name contains '"
	i := strings.Index(query, marker)
	if i < 0 {
		return ""
	}
	rest := query[i+len(marker):]
	j := strings.Index(rest, "'")
	if j < 0 {
		return ""
	}
	return strings.ReplaceAll(rest[:j], `\'`, `'`)
}

// errNotFound mirrors what the real client surfaces for a missing file.
func errNotFound(fileID string) error {
	return &googleapi.Error{Code: http.StatusNotFound, Message: "file not found: " + fileID}
}
