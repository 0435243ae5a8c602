package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"configllm/internal/library"
)

// FileLibrary is the file library the API manages.
type FileLibrary interface {
	List() ([]library.File, error)
	Add(src string, overwrite bool) (*library.File, error)
	Remove(names ...string) (int, error)
	RemoveAll() (int, error)
}

// FileHandler handles file library endpoints.
type FileHandler struct {
	lib FileLibrary
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(lib FileLibrary) *FileHandler {
	return &FileHandler{lib: lib}
}

// List handles GET /api/v1/files
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.lib.List()
	if err != nil {
		HandleError(c, err)
		return
	}
	if files == nil {
		files = []library.File{}
	}
	RespondOK(c, files)
}

// Upload handles POST /api/v1/files as multipart/form-data with a "file"
// field and an optional "overwrite" flag.
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "file name is required")
		return
	}
	overwrite, _ := strconv.ParseBool(c.PostForm("overwrite"))

	tmpDir, err := os.MkdirTemp("", "configllm-upload-")
	if err != nil {
		HandleError(c, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	staged := filepath.Join(tmpDir, name)
	if err := c.SaveUploadedFile(header, staged); err != nil {
		HandleError(c, err)
		return
	}

	f, err := h.lib.Add(staged, overwrite)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, f)
}

// Delete handles DELETE /api/v1/files/:name
func (h *FileHandler) Delete(c *gin.Context) {
	n, err := h.lib.Remove(c.Param("name"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": n})
}

// DeleteAll handles DELETE /api/v1/files
func (h *FileHandler) DeleteAll(c *gin.Context) {
	n, err := h.lib.RemoveAll()
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": n})
}
