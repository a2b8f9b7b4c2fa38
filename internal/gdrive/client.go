// Package gdrive wraps the Google Drive, Docs and Sheets APIs behind a
// narrow interface so the aggregation layer can be tested without the
// vendor SDK's service types.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/aoki/docquery/internal/model"
)

// API is the subset of remote operations the document service needs.
type API interface {
	// ListFiles lists file metadata matching a drive query string.
	ListFiles(ctx context.Context, query string) ([]model.RemoteFile, error)

	// FileMeta retrieves a single file's metadata by ID.
	FileMeta(ctx context.Context, fileID string) (*model.RemoteFile, error)

	// Download fetches a binary file's raw bytes.
	Download(ctx context.Context, fileID string) ([]byte, error)

	// Export converts a native Google file to the given MIME type.
	Export(ctx context.Context, fileID, mimeType string) ([]byte, error)

	// Document retrieves a Google Doc's structured body.
	Document(ctx context.Context, fileID string) (*docs.Document, error)

	// Spreadsheet retrieves a Google Sheet with grid data.
	Spreadsheet(ctx context.Context, fileID string) (*sheets.Spreadsheet, error)
}

const listFields = "nextPageToken, files(id, name, mimeType, webViewLink, modifiedTime)"

// Client implements API against the real Google services.
type Client struct {
	driveService  *drive.Service
	docsService   *docs.Service
	sheetsService *sheets.Service
}

// NewClient creates a Client from an authenticated http.Client carrying a
// specific user's credentials.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %v", err)
	}
	docsSrv, err := docs.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Docs client: %v", err)
	}
	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %v", err)
	}
	return &Client{
		driveService:  driveSrv,
		docsService:   docsSrv,
		sheetsService: sheetsSrv,
	}, nil
}

// ListFiles lists file metadata matching the query, following pagination.
func (c *Client) ListFiles(ctx context.Context, query string) ([]model.RemoteFile, error) {
	files := []model.RemoteFile{}
	pageToken := ""

	for {
		call := c.driveService.Files.List().
			Q(query).
			Fields(googleapi.Field(listFields)).
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		r, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list files: %w", err)
		}

		for _, f := range r.Files {
			files = append(files, toRemoteFile(f))
		}

		pageToken = r.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return files, nil
}

// FileMeta retrieves a single file's metadata.
func (c *Client) FileMeta(ctx context.Context, fileID string) (*model.RemoteFile, error) {
	f, err := c.driveService.Files.Get(fileID).
		SupportsAllDrives(true).
		Fields("id, name, mimeType, webViewLink, modifiedTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get file metadata: %w", err)
	}
	rf := toRemoteFile(f)
	return &rf, nil
}

// Download fetches the file's raw content.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.driveService.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download file: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read file content: %w", err)
	}
	return b, nil
}

// Export converts a native Google file (e.g. Slides) to the given MIME type.
func (c *Client) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	resp, err := c.driveService.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to export file: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read export content: %w", err)
	}
	return b, nil
}

// Document retrieves a Google Doc's structured body.
func (c *Client) Document(ctx context.Context, fileID string) (*docs.Document, error) {
	doc, err := c.docsService.Documents.Get(fileID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get document: %w", err)
	}
	return doc, nil
}

// Spreadsheet retrieves a Google Sheet including cell grid data.
func (c *Client) Spreadsheet(ctx context.Context, fileID string) (*sheets.Spreadsheet, error) {
	ss, err := c.sheetsService.Spreadsheets.Get(fileID).
		IncludeGridData(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get spreadsheet: %w", err)
	}
	return ss, nil
}

// toRemoteFile maps a drive file onto the domain type. A modifiedTime Drive
// didn't send, or sent malformed, maps to the zero time.
func toRemoteFile(f *drive.File) model.RemoteFile {
	modTime, err := time.Parse(time.RFC3339, f.ModifiedTime)
	if err != nil && f.ModifiedTime != "" {
		log.Warn().Str("file_id", f.Id).Str("modified_time", f.ModifiedTime).Msg("unparseable modifiedTime")
	}
	return model.RemoteFile{
		ID:           f.Id,
		Name:         f.Name,
		MIMEType:     f.MimeType,
		WebViewLink:  f.WebViewLink,
		ModifiedTime: modTime,
	}
}
