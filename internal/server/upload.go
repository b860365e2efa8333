package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
	"github.com/joseph-ayodele/entity-extractor/internal/report"
)

const uploadField = "files"

// Upload processes the multipart "files" field as one batch.
func (s *Server) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.maxUploadMB)<<20)
	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d MB", s.maxUploadMB)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a multipart form"})
		return
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	batch := pipeline.Batch{
		ID:     uuid.NewString(),
		Files:  make([]pipeline.File, 0, len(headers)),
		UserIP: c.ClientIP(),
	}
	for i, fh := range headers {
		f, err := s.stage(c, batch.ID, i, fh)
		if err != nil {
			s.fail(c, err)
			return
		}
		batch.Files = append(batch.Files, f)
	}

	out, err := s.proc.ProcessBatch(c.Request.Context(), batch)
	if err != nil {
		if out != nil && errors.Is(err, common.ErrEmptyBatch) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    common.UserMessage(err),
				"batch_id": out.BatchID,
				"files":    out.Files,
			})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// stage turns one multipart part into a pipeline file. With an upload dir
// the part is saved as <batch>_<index>_<name>; otherwise it is read into memory.
func (s *Server) stage(c *gin.Context, batchID string, i int, fh *multipart.FileHeader) (pipeline.File, error) {
	name := filepath.Base(fh.Filename)
	f := pipeline.File{Name: name, ContentType: fh.Header.Get("Content-Type")}

	if s.uploadDir != "" {
		if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
			return f, common.WrapError(err, "create upload dir")
		}
		f.Path = filepath.Join(s.uploadDir, fmt.Sprintf("%s_%d_%s", batchID, i, name))
		if err := c.SaveUploadedFile(fh, f.Path); err != nil {
			return f, common.WrapError(err, "save upload "+name)
		}
		return f, nil
	}

	src, err := fh.Open()
	if err != nil {
		return f, common.WrapError(err, "open upload "+name)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return f, common.WrapError(err, "read upload "+name)
	}
	f.Data = data
	return f, nil
}

// Results returns a stored batch summary with a short preview.
func (s *Server) Results(c *gin.Context) {
	batchID := c.Param("batch_id")
	summary, err := s.proc.LoadSummary(batchID)
	if err != nil {
		s.fail(c, err)
		return
	}
	downloads := map[string]string{}
	for _, format := range []string{constants.FormatXLSX, constants.FormatCSV} {
		name := batchID + "." + format
		if _, err := os.Stat(filepath.Join(s.proc.OutputDir(), name)); err == nil {
			downloads[format] = name
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"batch_id":  batchID,
		"summary":   summary,
		"preview":   report.BuildPreview(summary, report.DefaultPreviewLimit),
		"downloads": downloads,
	})
}

// Download serves a generated file from the output directory. Only bare file
// names are accepted.
func (s *Server) Download(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}
	path := filepath.Join(s.proc.OutputDir(), name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, name)
}
