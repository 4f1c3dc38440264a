package handler

import (
	"biro-server/internal/middleware"
	"biro-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProductTypeHandler struct {
	service service.ProductTypeService
	fail    middleware.FailFunc
}

func NewProductTypeHandler(s service.ProductTypeService, log *zap.SugaredLogger) *ProductTypeHandler {
	return &ProductTypeHandler{service: s, fail: CrudFail(log)}
}

// POST /api/v1/product-types
func (h *ProductTypeHandler) CreateProductType(c *fiber.Ctx) error {
	var req service.ProductTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, badRequest("Invalid JSON"))
	}

	pt, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(CrudResult{Result: pt, Count: 1})
}

// GetProductTypes lists every type, or the one named by ?id= or ?name=.
// GET /api/v1/product-types
func (h *ProductTypeHandler) GetProductTypes(c *fiber.Ctx) error {
	q := presentQuery(c, "id", "name")
	if len(q) > 1 {
		return h.fail(c, fiber.StatusBadRequest, badRequest("at most one of id or name is allowed"))
	}

	var sel service.ProductTypeSelector
	if v, ok := q["id"]; ok {
		id, err := queryInt(v, "id")
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, err)
		}
		sel.ID = id
	}
	if v, ok := q["name"]; ok {
		sel.Name = &v
	}

	types, err := h.service.Read(c.UserContext(), sel)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: types, Count: len(types)})
}
