package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"facility-planner/internal/registry"
	"facility-planner/internal/storage"

	"github.com/gin-gonic/gin"
)

// UploadPhotos stores the multipart "files" and attaches them as photos
func (h *Handler) UploadPhotos(c *gin.Context) {
	h.uploadAttachments(c, registry.AttachmentPhoto)
}

// UploadDocuments stores the multipart "files" and attaches them as documents
func (h *Handler) UploadDocuments(c *gin.Context) {
	h.uploadAttachments(c, registry.AttachmentDocument)
}

func (h *Handler) uploadAttachments(c *gin.Context, kind registry.AttachmentKind) {
	id := c.Param("id")
	if _, err := h.store.Element(id); err != nil {
		respondError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving the files"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	ctx, cancel := h.uploadContext(c)
	defer cancel()
	result := storage.UploadAll(ctx, h.files, files, h.maxUpload)

	el, err := h.store.AddAttachments(id, kind, result.Refs)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSaved(c, http.StatusOK, gin.H{
		"element":  el,
		"uploaded": result.Refs,
		"failed":   result.Failed,
	})
}

// UploadSpaceImage stores the multipart "file" as the background image of a space
func (h *Handler) UploadSpaceImage(c *gin.Context) {
	sp, err := h.store.Space(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving the file"})
		return
	}

	ctx, cancel := h.uploadContext(c)
	defer cancel()
	result := storage.UploadAll(ctx, h.files, []*multipart.FileHeader{fh}, h.maxUpload)
	if len(result.Refs) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed", "failed": result.Failed})
		return
	}

	sp.ImageRef = result.Refs[0]
	saved, err := h.store.UpsertSpace(sp)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSaved(c, http.StatusOK, gin.H{"space": saved})
}

func (h *Handler) uploadContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.uploadTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.uploadTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

// ServeFile streams a stored file by reference (?file=ref)
func (h *Handler) ServeFile(c *gin.Context) {
	ref := c.Query("file")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parameter is required"})
		return
	}
	rc, err := h.files.Open(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, storage.ContentType(ref), rc, nil)
}
