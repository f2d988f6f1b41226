package models

type WebResponse[T any] struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type PaginationRequest struct {
	Page  int    `json:"page" query:"page" validate:"omitempty,min=1"`
	Limit int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Order string `json:"order" query:"order" validate:"omitempty,oneof=asc desc"`
}

// Normalize applies the defaults used by every list endpoint.
func (p *PaginationRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
}

func (p *PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination[T any] struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	TotalItems int  `json:"total_items"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
	Items      T    `json:"items"`
}

// NewPagination calculates pagination metadata for a page of items.
func NewPagination[T any](req *PaginationRequest, totalItems int64, items T) *Pagination[T] {
	totalPages := int((totalItems + int64(req.Limit) - 1) / int64(req.Limit))
	return &Pagination[T]{
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
		TotalItems: int(totalItems),
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
		Items:      items,
	}
}
