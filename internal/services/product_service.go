// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/kofiasare/campusmart-backend/internal/domain"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"required,min=10"`
	Category    string   `json:"category" validate:"required"`
	Price       float64  `json:"price" validate:"required,min=0.01"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,min=0"` // nil = untracked
	Images      []string `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Title       string               `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description string               `json:"description,omitempty" validate:"omitempty,min=10"`
	Category    string               `json:"category,omitempty"`
	Price       float64              `json:"price,omitempty" validate:"omitempty,min=0.01"`
	Stock       *int                 `json:"stock,omitempty" validate:"omitempty,min=0"`
	Images      []string             `json:"images,omitempty"`
	Status      models.ProductStatus `json:"status,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID            `json:"seller_id,omitempty"`
	Status   *models.ProductStatus `json:"status,omitempty"`
	PriceMin *float64              `json:"price_min,omitempty"`
	PriceMax *float64              `json:"price_max,omitempty"`
	InStock  *bool                 `json:"in_stock,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var seller models.User
	if err := s.db.First(&seller, "id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if seller.Status != models.UserStatusActive {
		return nil, domain.ErrForbidden
	}

	product := &models.Product{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      pq.StringArray(req.Images),
		Status:      models.ProductStatusDraft,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID, viewerID *uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Non-active products are only visible to their seller.
	if product.Status != models.ProductStatusActive {
		if viewerID == nil || *viewerID != product.SellerID {
			return nil, domain.ErrNotFound
		}
	}

	if viewerID == nil || *viewerID != product.SellerID {
		go s.incrementViewCount(id)
	}

	return &product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, sellerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Seller").First(&product, "id = ?", id)
	return &product, nil
}

func (s *ProductService) DeleteProduct(id uuid.UUID, sellerID uuid.UUID) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if product.SellerID != sellerID {
		return domain.ErrForbidden
	}

	// Products with in-flight orders cannot be removed.
	var openOrders int64
	if err := s.db.Model(&models.Order{}).
		Where("product_id = ? AND status IN ?", id,
			[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusAccepted}).
		Count(&openOrders).Error; err != nil {
		return fmt.Errorf("failed to check open orders: %w", err)
	}
	if openOrders > 0 {
		return fmt.Errorf("%w: product has open orders", domain.ErrConflict)
	}

	if err := s.db.Delete(&product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Seller")

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status = ?", models.ProductStatusActive)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	if params.InStock != nil && *params.InStock {
		query = query.Where("stock IS NULL OR stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "price", "sales_count"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetSellerProducts(sellerID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("seller_id = ?", sellerID)

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count seller products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "status", "sales_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch seller products: %w", err)
	}

	return products, total, nil
}

// Helper methods

func (s *ProductService) incrementViewCount(productID uuid.UUID) {
	s.db.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
}
