package handler

import (
	"biro-server/internal/middleware"
	"biro-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	service service.CustomerService
	fail    middleware.FailFunc
}

func NewCustomerHandler(s service.CustomerService, log *zap.SugaredLogger) *CustomerHandler {
	return &CustomerHandler{service: s, fail: CrudFail(log)}
}

// CreateCustomer
// POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req service.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, badRequest("Invalid JSON"))
	}

	customer, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(CrudResult{Result: customer, Count: 1})
}

// GetCustomers takes exactly one of ?id=, ?name= (prefix) or ?address=
// (prefix). No match is an empty result, not an error.
// GET /api/v1/customers
func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	q := presentQuery(c, "id", "name", "address")
	if len(q) != 1 {
		return h.fail(c, fiber.StatusBadRequest, badRequest("exactly one of id, name or address is required"))
	}

	var sel service.CustomerSelector
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
	if v, ok := q["address"]; ok {
		sel.Address = &v
	}

	customers, err := h.service.Read(c.UserContext(), sel)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: customers, Count: len(customers)})
}

// UpdateCustomer
// PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, err)
	}
	var req service.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, badRequest("Invalid JSON"))
	}

	customer, err := h.service.Update(c.UserContext(), id, &req)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: customer, Count: 1})
}

// DeleteCustomer is refused with 409 while products reference the customer.
// DELETE /api/v1/customers/:id
func (h *CustomerHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, err)
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(CrudResult{Result: fiber.Map{"id": id}, Count: 1})
}
