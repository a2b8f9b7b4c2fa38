package document

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/aoki/docquery/internal/extract"
	"github.com/aoki/docquery/internal/gdrive"
	"github.com/aoki/docquery/internal/model"
)

// ClientProvider yields a drive API client authenticated as a user.
type ClientProvider interface {
	ClientFor(ctx context.Context, userID string) (gdrive.API, error)
}

// Service lists a user's files and aggregates their extracted content.
type Service struct {
	clients ClientProvider
	fetcher *Fetcher
}

// NewService creates a new Service.
func NewService(clients ClientProvider, fetcher *Fetcher) *Service {
	return &Service{clients: clients, fetcher: fetcher}
}

// SearchDocuments lists supported files matching query (all supported files
// when query is empty) and returns one Document per listed file. A file
// whose content cannot be fetched still appears, with a placeholder as its
// content, so one bad file never hides the rest.
func (s *Service) SearchDocuments(ctx context.Context, userID, query string) ([]model.Document, error) {
	api, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	files, err := api.ListFiles(ctx, gdrive.BuildListQuery(query, extract.SupportedMIMETypes()))
	if err != nil {
		return nil, err
	}

	documents := make([]model.Document, 0, len(files))
	for _, file := range files {
		content, err := s.fetcher.Fetch(ctx, api, file)
		if err != nil {
			log.Warn().Err(err).
				Str("user_id", userID).
				Str("file_id", file.ID).
				Str("mime_type", file.MIMEType).
				Msg("failed to fetch file content")
			content = extract.FailurePlaceholder(err)
		}
		documents = append(documents, model.Document{
			ID:           file.ID,
			Name:         file.Name,
			Content:      content,
			URL:          file.WebViewLink,
			LastModified: file.ModifiedTime,
		})
	}
	return documents, nil
}

// GetAllDocuments returns every supported file the user has.
func (s *Service) GetAllDocuments(ctx context.Context, userID string) ([]model.Document, error) {
	return s.SearchDocuments(ctx, userID, "")
}

// GetDocument fetches a single file's content by ID. Unlike an aggregation,
// a missing file is an error here, not a placeholder.
func (s *Service) GetDocument(ctx context.Context, userID, fileID string) (*model.Document, error) {
	api, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	file, err := api.FileMeta(ctx, fileID)
	if err != nil {
		return nil, err
	}

	content, err := s.fetcher.Fetch(ctx, api, *file)
	if err != nil {
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("file_id", fileID).
			Msg("failed to fetch file content")
		content = extract.FailurePlaceholder(err)
	}

	return &model.Document{
		ID:           file.ID,
		Name:         file.Name,
		Content:      content,
		URL:          file.WebViewLink,
		LastModified: file.ModifiedTime,
	}, nil
}
