package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/deedchain/internal/models"
)

const (
	// MaxDocumentBytes caps a single uploaded document.
	MaxDocumentBytes = 10 << 20
	// MaxRequestBytes caps a whole multipart submission.
	MaxRequestBytes = 8 * MaxDocumentBytes
)

var errDocumentTooLarge = errors.New("document too large")

// readDocuments collects the multipart files named by docs. Absent files are
// skipped; deciding whether they were required is left to validation.
func readDocuments(c *gin.Context, docs []models.DocumentType) (map[models.DocumentType]*models.DocumentFile, error) {
	files := make(map[models.DocumentType]*models.DocumentFile, len(docs))
	for _, doc := range docs {
		header, err := c.FormFile(string(doc))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc, err)
		}
		if header.Size > MaxDocumentBytes {
			return nil, fmt.Errorf("%s: %w", doc, errDocumentTooLarge)
		}

		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc, err)
		}
		content, err := io.ReadAll(io.LimitReader(f, MaxDocumentBytes+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc, err)
		}
		if len(content) > MaxDocumentBytes {
			return nil, fmt.Errorf("%s: %w", doc, errDocumentTooLarge)
		}

		files[doc] = &models.DocumentFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		}
	}
	return files, nil
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBytes)
}
