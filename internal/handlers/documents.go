package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/middleware"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/service"
)

const (
	maxDocumentBytes = 25 << 20
	maxUploadBytes   = 100 << 20
)

var errTooLarge = errors.New("payload too large")

func readLimited(c *gin.Context, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}

func (h HandlerSet) ListDocuments(c *gin.Context) {
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.svc.Documents.ForCase(pc.ID)})
}

// UploadDocuments takes a multipart form with one or more "files" parts and
// an optional "category" applied to all of them.
func (h HandlerSet) UploadDocuments(c *gin.Context) {
	pc, ok := h.visibleCase(c, c.Param("id"))
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_form_required"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	category := models.DocumentCategory(c.PostForm("category"))

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxDocumentBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("%s exceeds %d bytes", fh.Filename, maxDocumentBytes)})
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			badRequest(c, err)
			return
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Category: category, Data: data})
	}

	docs, err := h.svc.Documents.Upload(c.Request.Context(), middleware.CurrentSession(c), pc.ID, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.mirror != nil {
		h.mirrorCase(pc.ID)
		for _, d := range docs {
			h.mirror.Document(d)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"items": docs})
}

// document loads a document whose case the caller may access.
func (h HandlerSet) document(c *gin.Context) (models.Document, bool) {
	doc, err := h.svc.Documents.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return models.Document{}, false
	}
	pc, err := h.svc.Cases.Get(doc.CaseID)
	if err == nil && !h.svc.Cases.CanAccess(middleware.CurrentSession(c), pc) {
		err = service.ErrDocumentNotFound
	}
	if err != nil && !errors.Is(err, service.ErrCaseNotFound) {
		h.fail(c, err)
		return models.Document{}, false
	}
	return doc, true
}

func (h HandlerSet) GetDocument(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) DeleteDocument(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	if err := h.svc.Documents.Delete(c.Request.Context(), middleware.CurrentSession(c), doc.ID); err != nil {
		h.fail(c, err)
		return
	}
	h.mirror.DocumentDeleted(doc.ID)
	h.mirrorCase(doc.CaseID)

	c.Status(http.StatusNoContent)
}
