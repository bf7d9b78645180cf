package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sentiment-probe/internal/service"
	"github.com/noah-isme/sentiment-probe/internal/utils"
)

// DatasetHandler serves the built-in example dataset.
type DatasetHandler struct {
	service service.DatasetService
}

// NewDatasetHandler constructs a dataset handler.
func NewDatasetHandler(service service.DatasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// Register wires the dataset route.
func (h *DatasetHandler) Register(router fiber.Router) {
	router.Get("/dataset", h.list)
}

func (h *DatasetHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "dataset retrieved", h.service.Default())
}
