package dto

import (
	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/domain/catalogs/supplier"
)

// CreateSupplierRequest for POST /suppliers.
type CreateSupplierRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	ContactName  string `json:"contactName,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	Phone        string `json:"phone,omitempty"`
	LeadTimeDays int    `json:"leadTimeDays"`
}

// ToEntity converts the request to a new supplier.
func (r CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.New(r.Code, r.Name, r.LeadTimeDays)
	s.ContactName = r.ContactName
	s.ContactEmail = r.ContactEmail
	s.Phone = r.Phone
	return s
}

// UpdateSupplierRequest for PUT /suppliers/:id.
type UpdateSupplierRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactName  string `json:"contactName,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	Phone        string `json:"phone,omitempty"`
	LeadTimeDays int    `json:"leadTimeDays"`
	Active       *bool  `json:"active,omitempty"`
}

// ApplyTo copies mutable fields onto an existing supplier.
func (r UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Name = r.Name
	s.ContactName = r.ContactName
	s.ContactEmail = r.ContactEmail
	s.Phone = r.Phone
	s.LeadTimeDays = r.LeadTimeDays
	if r.Active != nil {
		s.Active = *r.Active
	}
}

// BomItemRequest is one BOM line in a product payload.
type BomItemRequest struct {
	PartID          id.ID        `json:"partId" binding:"required"`
	QuantityPerUnit types.Factor `json:"quantityPerUnit" binding:"required"`
	LossRate        types.Factor `json:"lossRate"`
}

// CreateProductRequest for POST /products.
type CreateProductRequest struct {
	Code     string           `json:"code" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	BomItems []BomItemRequest `json:"bomItems,omitempty"`
}

// ToEntity converts the request to a new product with BOM lines.
func (r CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Code, r.Name)
	p.BomItems = bomItems(p.ID, r.BomItems)
	return p
}

// UpdateProductRequest for PUT /products/:id. The BOM is replaced
// wholesale.
type UpdateProductRequest struct {
	Name     string           `json:"name" binding:"required"`
	Active   *bool            `json:"active,omitempty"`
	BomItems []BomItemRequest `json:"bomItems"`
}

// ApplyTo copies mutable fields onto an existing product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Name = r.Name
	if r.Active != nil {
		p.Active = *r.Active
	}
	p.BomItems = bomItems(p.ID, r.BomItems)
}

func bomItems(productID id.ID, reqs []BomItemRequest) []product.BomItem {
	items := make([]product.BomItem, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, product.BomItem{
			ID:              id.New(),
			ProductID:       productID,
			PartID:          req.PartID,
			QuantityPerUnit: req.QuantityPerUnit,
			LossRate:        req.LossRate,
		})
	}
	return items
}
