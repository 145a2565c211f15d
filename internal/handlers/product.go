// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kofiasare/campusmart-backend/internal/services"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	product, err := h.productService.CreateProduct(sellerID, &req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var viewerID *uuid.UUID
	if id, ok := currentUserID(c); ok {
		viewerID = &id
	}

	product, err := h.productService.GetProduct(productID, viewerID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	product, err := h.productService.UpdateProduct(productID, sellerID, &req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	if err := h.productService.DeleteProduct(productID, sellerID); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Product deleted"})
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	params := services.ProductSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if raw := c.Query("seller_id"); raw != "" {
		if sellerID, err := uuid.Parse(raw); err == nil {
			params.SellerID = &sellerID
		}
	}
	if raw := c.Query("price_min"); raw != "" {
		if priceMin, err := strconv.ParseFloat(raw, 64); err == nil {
			params.PriceMin = &priceMin
		}
	}
	if raw := c.Query("price_max"); raw != "" {
		if priceMax, err := strconv.ParseFloat(raw, 64); err == nil {
			params.PriceMax = &priceMax
		}
	}
	if c.Query("in_stock") == "true" {
		inStock := true
		params.InStock = &inStock
	}

	products, total, err := h.productService.SearchProducts(params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.GetSellerProducts(sellerID, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

func (h *ProductHandler) UploadImages(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", nil)
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No images provided", nil)
		return
	}
	if len(files) > 5 {
		utils.BadRequestResponse(c, "At most 5 images per upload", nil)
		return
	}

	results := make([]*services.UploadResult, 0, len(files))
	for _, header := range files {
		result, err := h.storageService.UploadProductImage(header)
		if err != nil {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		results = append(results, result)
	}

	utils.SuccessResponse(c, gin.H{"images": results})
}
