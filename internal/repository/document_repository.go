package repository

import (
	"context"
	"fmt"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

type DocumentRepository struct {
	db Execer
}

func NewDocumentRepository(db Execer) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Upsert(ctx context.Context, doc models.Document) error {
	const query = `
		INSERT INTO documents (
			id, case_id, uploaded_by, name, type, size_bytes, pages, category, file_path, upload_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			size_bytes = EXCLUDED.size_bytes,
			pages = EXCLUDED.pages,
			category = EXCLUDED.category,
			file_path = EXCLUDED.file_path
	`

	_, err := r.db.Exec(ctx, query,
		doc.ID,
		doc.CaseID,
		nullable(doc.UploadedByID),
		doc.Name,
		doc.Type,
		doc.Size,
		doc.Pages,
		string(doc.Category),
		nullable(doc.FilePath),
		doc.UploadDate,
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// DeleteExcept removes every row whose id is not in keep.
func (r *DocumentRepository) DeleteExcept(ctx context.Context, keep []string) error {
	if keep == nil {
		keep = []string{}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id <> ALL($1::text[])`, keep); err != nil {
		return fmt.Errorf("prune documents: %w", err)
	}
	return nil
}
