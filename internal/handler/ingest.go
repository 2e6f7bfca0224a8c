package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/extract"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/service"
)

type IngestHandler struct {
	ingestSvc *service.IngestService
}

func NewIngestHandler(ingestSvc *service.IngestService) *IngestHandler {
	return &IngestHandler{ingestSvc: ingestSvc}
}

type IngestResponse struct {
	FileID     string `json:"file_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Ingest handles POST /v1/files: multipart upload plus the scope tuple.
// A missing file_id gets a generated one.
func (h *IngestHandler) Ingest(c *gin.Context) {
	in, ok := h.bindUpload(c)
	if !ok {
		return
	}
	if in.FileID == "" {
		in.FileID = uuid.NewString()
	}

	count, err := h.ingestSvc.Ingest(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IngestResponse{FileID: in.FileID, ChunkCount: count})
}

// Update handles PUT /v1/files/:file_id: delete-then-reinsert replacement.
func (h *IngestHandler) Update(c *gin.Context) {
	in, ok := h.bindUpload(c)
	if !ok {
		return
	}
	in.FileID = c.Param("file_id")

	count, err := h.ingestSvc.Update(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, IngestResponse{FileID: in.FileID, ChunkCount: count})
}

// Delete handles DELETE /v1/files/:file_id with optional company/category
// guards.
func (h *IngestHandler) Delete(c *gin.Context) {
	fileID := c.Param("file_id")
	companyID := c.Query("company_id")
	category := c.Query("category")

	if err := h.ingestSvc.Delete(c.Request.Context(), fileID, companyID, category); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_id": fileID, "deleted": true})
}

// List handles GET /v1/files.
func (h *IngestHandler) List(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}

	files, err := h.ingestSvc.ListFiles(c.Request.Context(), companyID, c.Query("category"), c.Query("building_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request"})
		return
	}

	var totalSize int64
	for _, f := range files {
		totalSize += f.SizeBytes
	}
	c.JSON(http.StatusOK, gin.H{
		"files":       files,
		"total_files": len(files),
		"total_size":  humanReadableSize(totalSize),
	})
}

func (h *IngestHandler) bindUpload(c *gin.Context) (service.IngestInput, bool) {
	var in service.IngestInput

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return in, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return in, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return in, false
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return in, false
	}

	in = service.IngestInput{
		Filename:   fileHeader.Filename,
		Data:       data,
		CompanyID:  c.PostForm("company_id"),
		Category:   c.PostForm("category"),
		FileID:     c.PostForm("file_id"),
		BuildingID: c.PostForm("building_id"),
		UploadedBy: c.PostForm("uploaded_by"),
	}
	if in.CompanyID == "" || in.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id and category are required"})
		return in, false
	}
	return in, true
}

func (h *IngestHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file format"})
	case errors.Is(err, extract.ErrNoText):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no text could be extracted from file"})
	case errors.Is(err, service.ErrFileExists):
		c.JSON(http.StatusConflict, gin.H{"error": "file already ingested"})
	default:
		// internal detail stays in logs, not in the response
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request"})
	}
}

func humanReadableSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.2f %s", float64(size)/float64(div), units[exp])
}
