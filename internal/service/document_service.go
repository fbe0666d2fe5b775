package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/ids"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/media/sniffer"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// BlobStore keeps the raw bytes of uploaded documents. It is optional; without
// one only the metadata and extracted text are stored.
type BlobStore interface {
	PutDocument(ctx context.Context, key string, data []byte, contentType string) error
	RemoveDocument(ctx context.Context, key string) error
}

type DocumentService struct {
	base
	audit *AuditService
	blobs BlobStore
}

type UploadFile struct {
	Name     string
	Category models.DocumentCategory
	Data     []byte
}

func (s *DocumentService) ForCase(caseID string) []models.Document {
	return s.store.DocumentsByCase(caseID)
}

func (s *DocumentService) Get(id string) (models.Document, error) {
	doc, ok := s.store.DocumentByID(id)
	if !ok {
		return models.Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

// Upload attaches files to a case. Every file is checked before anything is
// stored, so a rejected batch leaves the case untouched. One UPLOAD_DOCUMENTS
// entry is recorded for the batch.
func (s *DocumentService) Upload(ctx context.Context, sess *Session, caseID string, files []UploadFile) ([]models.Document, error) {
	if !sess.Active() {
		return nil, ErrNoSession
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrInvalidInput)
	}
	c, ok := s.store.CaseByID(caseID)
	if !ok {
		return nil, ErrCaseNotFound
	}

	detected := make([]sniffer.Result, len(files))
	for i, f := range files {
		if f.Category == "" {
			files[i].Category = models.DocumentCategoryOther
		} else if !f.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, f.Category)
		}
		result, err := sniffer.DetectHead(head(f.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, f.Name)
		}
		detected[i] = result
	}

	now := s.stamp()
	docs := make([]models.Document, 0, len(files))
	for i, f := range files {
		result := detected[i]
		doc := models.Document{
			ID:           ids.New(),
			Name:         path.Base(f.Name),
			Type:         result.MIME,
			UploadDate:   now,
			UploadedBy:   sess.User.Name,
			UploadedByID: sess.User.ID,
			Size:         int64(len(f.Data)),
			Pages:        1,
			Category:     files[i].Category,
			CaseID:       c.ID,
		}
		doc.FilePath = fmt.Sprintf("cases/%s/%s/%s.%s", c.ID, now.Format("2006/01/02"), doc.ID, result.Type)

		switch {
		case result.Type == sniffer.TypePDF:
			doc.Pages = sniffer.PDFPages(f.Data)
		case result.Textual():
			doc.Content = string(f.Data)
		}
		docs = append(docs, doc)
	}

	// All blobs go in before any record; a failed write removes the ones
	// already stored and leaves the case as it was.
	if s.blobs != nil {
		for i, doc := range docs {
			if err := s.blobs.PutDocument(ctx, doc.FilePath, files[i].Data, detected[i].MIME); err != nil {
				s.log.Error().Err(err).Str("key", doc.FilePath).Msg("store document blob failed")
				for _, stored := range docs[:i] {
					removeBlob(ctx, s.blobs, s.log, stored)
				}
				return nil, fmt.Errorf("store document %s: %w", doc.Name, err)
			}
		}
	}
	for _, doc := range docs {
		s.persisted(s.store.AddDocument(ctx, doc), "document not persisted")
	}

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionUploadDocuments,
		CaseID:   c.ID,
		CaseName: c.PatientName,
		Details:  fmt.Sprintf("Uploaded %d document(s): %s", len(docs), strings.Join(names, ", ")),
	})
	return docs, nil
}

func (s *DocumentService) Delete(ctx context.Context, sess *Session, id string) error {
	if !sess.Active() {
		return ErrNoSession
	}
	doc, ok := s.store.DocumentByID(id)
	if !ok {
		return ErrDocumentNotFound
	}

	s.persisted(s.store.DeleteDocument(ctx, id), "document delete not persisted")
	removeBlob(ctx, s.blobs, s.log, doc)

	caseName := ""
	if c, ok := s.store.CaseByID(doc.CaseID); ok {
		caseName = c.PatientName
	}
	s.audit.Record(ctx, sess, AuditEntry{
		Action:   models.ActionDeleteDocument,
		CaseID:   doc.CaseID,
		CaseName: caseName,
		Details:  fmt.Sprintf("Deleted document %s", doc.Name),
	})
	return nil
}

// removeBlob deletes the stored bytes of doc. Failures are only logged.
func removeBlob(ctx context.Context, blobs BlobStore, log zerolog.Logger, doc models.Document) {
	if blobs == nil || doc.FilePath == "" {
		return
	}
	if err := blobs.RemoveDocument(ctx, doc.FilePath); err != nil {
		log.Warn().Err(err).Str("key", doc.FilePath).Msg("remove document blob failed")
	}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
