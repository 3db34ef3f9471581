package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/facturaia/invoice-pipeline/internal/entity"
	"github.com/facturaia/invoice-pipeline/internal/pipeline"
)

// processBatch accepts a multipart batch under the "files" field and runs it
// synchronously; the response is the full batch summary.
func (s *Server) processBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	files := make([]pipeline.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file: " + h.Filename})
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file: " + h.Filename})
			return
		}
		files = append(files, pipeline.UploadFile{
			Name:        h.Filename,
			Content:     content,
			ContentType: h.Header.Get("Content-Type"),
		})
	}

	summary, err := s.orchestrator.Run(c.Request.Context(), "http-upload", files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.accounting.ListRecentRuns(c.Request.Context(), 20)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []*entity.ProcessingRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// downloadReport streams the XLSX workbook recorded on a run.
func (s *Server) downloadReport(c *gin.Context) {
	id := c.Param("run_id")
	respondLookup(c, s.accounting.GetRun(c.Request.Context(), id), "run not found", func(run *entity.ProcessingRun) {
		if run.ExcelReportPath == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "run has no report"})
			return
		}
		if _, err := os.Stat(run.ExcelReportPath); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "report file not found"})
			return
		}
		c.FileAttachment(run.ExcelReportPath, filepath.Base(run.ExcelReportPath))
	})
}

func (s *Server) listLogs(c *gin.Context) {
	logs, err := s.accounting.ListLogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []*entity.ProcessingLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) listStatistics(c *gin.Context) {
	stats, err := s.accounting.ListStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if stats == nil {
		stats = []*entity.StatisticsProcess{}
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}
