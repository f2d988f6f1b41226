package services

import (
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
	"gorm.io/gorm"
)

// paginate counts and loads one page of query ordered by orderColumn.
func paginate[T any](query *gorm.DB, pagination *models.PaginationRequest, orderColumn string) (*models.Pagination[[]T], error) {
	if pagination == nil {
		pagination = &models.PaginationRequest{}
	}
	pagination.Normalize()

	var totalItems int64
	if err := query.Session(&gorm.Session{}).Count(&totalItems).Error; err != nil {
		return nil, errors.NewUnavailableError(err, "Failed to count records")
	}

	items := make([]T, 0, pagination.Limit)
	err := query.Session(&gorm.Session{}).
		Order(orderColumn + " " + pagination.Order).
		Limit(pagination.Limit).
		Offset(pagination.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, errors.NewUnavailableError(err, "Failed to list records")
	}

	return models.NewPagination(pagination, totalItems, items), nil
}
