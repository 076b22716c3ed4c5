package handlers

import (
	"net/http"

	"storefront-backend/dtos"
	"storefront-backend/firebase"
	"storefront-backend/services"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const categoryImageFolder = "categories"

type CategoryHandler struct {
	Catalog *services.CatalogService
	Storage firebase.StorageClient
	Log     *zap.Logger
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]dtos.CategoryResource, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dtos.NewCategoryResource(cat))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := paramUUID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCategoryResource(*category))
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req dtos.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.Catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewCategoryResource(*category))
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramUUID(c, "id", "category")
	if !ok {
		return
	}
	var req dtos.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.Catalog.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewCategoryResource(*category))
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramUUID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.Catalog.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	deleteStoredImage(c, h.Storage, h.Log, category.ImageURL)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// UploadImage replaces the category image with the multipart "image" file.
func (h *CategoryHandler) UploadImage(c *gin.Context) {
	id, ok := paramUUID(c, "id", "category")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetCategory(ctx, id); err != nil {
		fail(c, err)
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	if err := utils.ValidateFileUpload(fh); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image"})
		return
	}
	imageURL, err := h.Storage.UploadImage(ctx, file, categoryImageFolder, fh.Filename, fh.Header.Get("Content-Type"))
	file.Close()
	if err != nil {
		uploadFailed(c, h.Log, err)
		return
	}

	previous, err := h.Catalog.SetCategoryImage(ctx, id, imageURL)
	if err != nil {
		deleteStoredImage(c, h.Storage, h.Log, imageURL)
		fail(c, err)
		return
	}
	if previous != imageURL {
		deleteStoredImage(c, h.Storage, h.Log, previous)
	}

	c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
}
