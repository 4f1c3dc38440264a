package handler

import (
	"biro-server/internal/middleware"
	"biro-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProductHandler struct {
	service     service.ProductService
	fail        middleware.FailFunc
	reserveFail middleware.FailFunc
}

func NewProductHandler(s service.ProductService, log *zap.SugaredLogger) *ProductHandler {
	return &ProductHandler{service: s, fail: CrudFail(log), reserveFail: ReserveFail(log)}
}

type UpdateProductRequest struct {
	CustomerID int `json:"customer_id"`
}

// ReserveProduct creates a product with the proposed serial number or, when
// that number is taken, the next free one. The number actually stored is
// returned as corrected_serial_number.
// POST /api/v1/products/reserve
func (h *ProductHandler) ReserveProduct(c *fiber.Ctx) error {
	var req service.ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return h.reserveFail(c, fiber.StatusBadRequest, badRequest("Invalid JSON"))
	}

	out, err := h.service.Reserve(c.UserContext(), middleware.Token(c), &req)
	if err != nil {
		return h.reserveFail(c, statusOf(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(ReserveResult{
		Success:               true,
		CorrectedSerialNumber: out.SerialNumber,
	})
}

// GetProducts takes ?id=, ?type= (optionally with &serial=) or ?customer=.
// GET /api/v1/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	q := presentQuery(c, "id", "type", "serial", "customer")

	var sel service.ProductSelector
	keys := 0
	for name, dst := range map[string]**int{"id": &sel.ID, "type": &sel.TypeID, "customer": &sel.CustomerID, "serial": &sel.Serial} {
		v, ok := q[name]
		if !ok {
			continue
		}
		n, err := queryInt(v, name)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, err)
		}
		*dst = n
		if name != "serial" {
			keys++
		}
	}
	if keys != 1 {
		return h.fail(c, fiber.StatusBadRequest, badRequest("exactly one of id, type or customer is required"))
	}
	if sel.Serial != nil && sel.TypeID == nil {
		return h.fail(c, fiber.StatusBadRequest, badRequest("serial requires type"))
	}

	products, users, err := h.service.Read(c.UserContext(), sel)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: products, Count: len(products), UserContext: users})
}

// UpdateProduct moves the product to another customer.
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, err)
	}
	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, badRequest("Invalid JSON"))
	}

	product, err := h.service.UpdateCustomer(c.UserContext(), id, req.CustomerID)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: product, Count: 1})
}

// DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, err)
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: fiber.Map{"id": id}, Count: 1})
}

// ReserveFail is the rejection RequireSession uses on the reserve route.
func (h *ProductHandler) ReserveFail(c *fiber.Ctx, status int, err error) error {
	return h.reserveFail(c, status, err)
}
