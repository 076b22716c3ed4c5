package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-backend/apperrors"
	"storefront-backend/dtos"
	"storefront-backend/firebase"
	"storefront-backend/logger"
	"storefront-backend/services"
	"storefront-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const productImageFolder = "products"

type ProductHandler struct {
	Catalog *services.CatalogService
	Storage firebase.StorageClient
	Log     *zap.Logger
}

// GetProducts serves the storefront listing: one page of active products
// plus every category and the featured products.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	query := services.ProductQuery{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))

	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		query.CategoryID = &id
	}

	ctx := c.Request.Context()
	page, err := h.Catalog.ListProducts(ctx, query)
	if err != nil {
		fail(c, err)
		return
	}
	categories, err := h.Catalog.Categories(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	featured, err := h.Catalog.Featured(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	categoryResources := make([]dtos.CategoryResource, 0, len(categories))
	for _, cat := range categories {
		categoryResources = append(categoryResources, dtos.NewCategoryResource(cat))
	}

	c.JSON(http.StatusOK, gin.H{
		"products":          dtos.NewProductResources(page.Products),
		"page":              page.Page,
		"total_pages":       page.TotalPages,
		"total":             page.Total,
		"has_next":          page.HasNext,
		"has_previous":      page.HasPrev,
		"categories":        categoryResources,
		"featured_products": dtos.NewProductResources(featured),
		"search_query":      query.Search,
		"sort":              query.Sort,
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}

	detail, err := h.Catalog.ProductDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	reviews := make([]dtos.ReviewResource, 0, len(detail.Reviews))
	for _, r := range detail.Reviews {
		reviews = append(reviews, dtos.NewReviewResource(r))
	}

	c.JSON(http.StatusOK, gin.H{
		"product":          dtos.NewProductResource(detail.Product),
		"reviews":          reviews,
		"average_rating":   detail.AverageRating,
		"related_products": dtos.NewProductResources(detail.Related),
	})
}

// GetProductsPaginated is the admin listing. It includes inactive products.
func (h *ProductHandler) GetProductsPaginated(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > dtos.MaxListLimit {
		limit = dtos.DefaultListLimit
	}

	filter := services.ProductFilter{
		TitleContains:   c.Query("search"),
		IncludeInactive: true,
		Limit:           limit,
		Offset:          (page - 1) * limit,
	}
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		filter.CategoryID = &id
	}

	products, total, err := h.Catalog.FindProducts(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": dtos.NewProductResources(products),
		"total":    total,
		"page":     page,
		"limit":    limit,
		"pages":    (int(total) + limit - 1) / limit,
	})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req dtos.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logger.FromContext(c, h.Log).Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("title", product.Title),
	)
	c.JSON(http.StatusCreated, dtos.NewProductResource(*product))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	var req dtos.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewProductResource(*product))
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.Catalog.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	// Clean up stored images; failures only leave orphaned objects behind.
	urls := map[string]bool{}
	if product.ImageURL != "" {
		urls[product.ImageURL] = true
	}
	for _, img := range product.Images {
		urls[img.ImageURL] = true
	}
	for u := range urls {
		h.deleteStoredImage(c, u)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// UploadImages adds multipart "images" to a product's gallery.
func (h *ProductHandler) UploadImages(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetProduct(ctx, id, true); err != nil {
		fail(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one image is required"})
		return
	}
	for _, fh := range files {
		if err := utils.ValidateFileUpload(fh); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			h.rollbackUploads(c, urls)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image"})
			return
		}
		imageURL, err := h.Storage.UploadImage(ctx, file, productImageFolder, fh.Filename, fh.Header.Get("Content-Type"))
		file.Close()
		if err != nil {
			h.rollbackUploads(c, urls)
			h.uploadFailed(c, err)
			return
		}
		urls = append(urls, imageURL)
	}

	images, err := h.Catalog.AddProductImages(ctx, id, urls, c.PostForm("alt_text"))
	if err != nil {
		h.rollbackUploads(c, urls)
		fail(c, err)
		return
	}

	out := make([]dtos.ProductImageResource, 0, len(images))
	for _, img := range images {
		out = append(out, dtos.ProductImageResource{ID: img.ID, ImageURL: img.ImageURL, AltText: img.AltText})
	}
	c.JSON(http.StatusCreated, gin.H{"images": out})
}

func (h *ProductHandler) DeleteImage(c *gin.Context) {
	id, ok := paramUUID(c, "id", "product")
	if !ok {
		return
	}
	imageID, ok := paramUUID(c, "image_id", "image")
	if !ok {
		return
	}

	image, err := h.Catalog.RemoveProductImage(c.Request.Context(), id, imageID)
	if err != nil {
		fail(c, err)
		return
	}
	h.deleteStoredImage(c, image.ImageURL)

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

func (h *ProductHandler) rollbackUploads(c *gin.Context, urls []string) {
	for _, u := range urls {
		h.deleteStoredImage(c, u)
	}
}

func (h *ProductHandler) deleteStoredImage(c *gin.Context, imageURL string) {
	deleteStoredImage(c, h.Storage, h.Log, imageURL)
}

func (h *ProductHandler) uploadFailed(c *gin.Context, err error) {
	uploadFailed(c, h.Log, err)
}

// deleteStoredImage removes an image from storage, logging failures.
// URLs outside the bucket are left alone.
func deleteStoredImage(c *gin.Context, storage firebase.StorageClient, log *zap.Logger, imageURL string) {
	if imageURL == "" {
		return
	}
	if _, err := utils.ExtractObjectPath(imageURL); err != nil {
		return
	}
	if err := storage.DeleteURL(c.Request.Context(), imageURL); err != nil {
		logger.FromContext(c, log).Warn("failed to delete stored image", zap.String("url", imageURL), zap.Error(err))
	}
}

func uploadFailed(c *gin.Context, log *zap.Logger, err error) {
	if errors.Is(err, firebase.ErrStorageDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	}
	logger.FromContext(c, log).Error("image upload failed", zap.Error(err))
	fail(c, apperrors.Withf(apperrors.ErrInternal, "Image upload failed"))
}
