package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"configllm/internal/csvexport"
	"configllm/internal/domain"
	"configllm/internal/tables"
)

// TableHandler serves tables extracted from the run transcript.
type TableHandler struct {
	transcriptPath string
	summaryPath    string
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(transcriptPath, summaryPath string) *TableHandler {
	return &TableHandler{transcriptPath: transcriptPath, summaryPath: summaryPath}
}

// Get handles GET /api/v1/tables
func (h *TableHandler) Get(c *gin.Context) {
	m, err := tables.Load(h.transcriptPath)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, m)
}

// Export handles GET /api/v1/tables/export?format=csv|xlsx
func (h *TableHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", tables.FormatCSV)
	if format != tables.FormatCSV && format != tables.FormatXLSX {
		HandleError(c, domain.ErrInvalidFormat)
		return
	}

	m, err := tables.Load(h.transcriptPath)
	if err != nil {
		HandleError(c, err)
		return
	}
	if m.Empty() {
		RespondError(c, http.StatusNotFound, "NO_TABLES", "no tables found in the transcript")
		return
	}

	var buf bytes.Buffer
	if err := tables.Export(&buf, m, format, h.summaryPath); err != nil {
		HandleError(c, err)
		return
	}

	name := csvexport.BuildFilename("extracted_tables", format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, tables.ContentType(format), buf.Bytes())
}
