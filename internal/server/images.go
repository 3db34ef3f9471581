package server

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/entity"
)

func (s *Server) listImages(c *gin.Context) {
	images, err := s.images.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if images == nil {
		images = []*entity.InvoiceImage{}
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (s *Server) getImage(c *gin.Context) {
	id := c.Param("id")
	respondLookup(c, s.images.GetByID(c.Request.Context(), id), "image not found", func(img *entity.InvoiceImage) {
		c.JSON(http.StatusOK, img)
	})
}

// uploadImages stores each valid file in object storage and records it.
// Invalid extensions and duplicate filenames are reported per file rather
// than failing the whole request.
func (s *Server) uploadImages(c *gin.Context) {
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

	type skipped struct {
		Filename string `json:"filename"`
		Reason   string `json:"reason"`
	}
	var (
		uploaded []*entity.InvoiceImage
		rejected []skipped
	)

	for _, h := range headers {
		if !constants.AllowedExt(filepath.Ext(h.Filename)) {
			rejected = append(rejected, skipped{Filename: h.Filename, Reason: "unsupported file type"})
			continue
		}

		exists, err := s.images.ExistsByFilename(c.Request.Context(), filepath.Base(h.Filename))
		if err != nil {
			respondError(c, err)
			return
		}
		if exists {
			rejected = append(rejected, skipped{Filename: h.Filename, Reason: "an image with this name already exists"})
			continue
		}

		url, err := s.storeUpload(c, h)
		if err != nil {
			rejected = append(rejected, skipped{Filename: h.Filename, Reason: err.Error()})
			continue
		}

		img := &entity.InvoiceImage{ImageURL: url}
		if _, err := s.images.Insert(c.Request.Context(), img); err != nil {
			respondError(c, err)
			return
		}
		uploaded = append(uploaded, img)
	}

	status := http.StatusCreated
	if len(uploaded) == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"uploaded": uploaded, "skipped": rejected})
}

// replaceImage uploads the new file, repoints the record, then removes the
// old object. Removal failures are logged, not surfaced: the record already
// points at the new object.
func (s *Server) replaceImage(c *gin.Context) {
	id := c.Param("id")

	h, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if !constants.AllowedExt(filepath.Ext(h.Filename)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	respondLookup(c, s.images.GetByID(c.Request.Context(), id), "image not found", func(existing *entity.InvoiceImage) {
		url, err := s.storeUpload(c, h)
		if err != nil {
			respondError(c, err)
			return
		}

		updated := s.images.UpdateURL(c.Request.Context(), id, url)
		respondLookup(c, updated, "image not found", func(img *entity.InvoiceImage) {
			if existing.ImageURL != "" {
				if err := s.storage.Delete(c.Request.Context(), existing.ImageURL); err != nil {
					s.logger.Warn("images.replace.old_object_delete_failed", "image_id", id, "url", existing.ImageURL, "error", err)
				}
			}
			c.JSON(http.StatusOK, img)
		})
	})
}

// deleteImage removes the stored object and then the record. A missing
// object does not block record deletion.
func (s *Server) deleteImage(c *gin.Context) {
	id := c.Param("id")
	respondLookup(c, s.images.GetByID(c.Request.Context(), id), "image not found", func(existing *entity.InvoiceImage) {
		if existing.ImageURL != "" {
			if err := s.storage.Delete(c.Request.Context(), existing.ImageURL); err != nil {
				s.logger.Warn("images.delete.object_delete_failed", "image_id", id, "url", existing.ImageURL, "error", err)
			}
		}
		respondLookup(c, s.images.Delete(c.Request.Context(), id), "image not found", func(img *entity.InvoiceImage) {
			c.JSON(http.StatusOK, gin.H{"deleted": img})
		})
	})
}

func (s *Server) storeUpload(c *gin.Context, h *multipart.FileHeader) (string, error) {
	f, err := h.Open()
	if err != nil {
		return "", fmt.Errorf("cannot read uploaded file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	content, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("cannot read uploaded file: %w", err)
	}

	contentType := h.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(h.Filename))
	}
	key := fmt.Sprintf("%s/%s_%s",
		time.Now().UTC().Format("2006/01/02"),
		uuid.New().String(),
		filepath.Base(h.Filename),
	)
	return s.storage.Upload(c.Request.Context(), content, key, contentType)
}
