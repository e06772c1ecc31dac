// services/catalog_service.go
package services

import (
	"rithm-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// GetGames serves the practice-game catalog in display order.
func (s *CatalogService) GetGames(c *fiber.Ctx) error {
	pages := make([]models.GamePage, 0)
	if err := s.DB.Order("sort_order ASC").Find(&pages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to load games", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"games": pages})
}
