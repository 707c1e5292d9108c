package route

import (
	"github.com/NikBulygin/Indrive-hackation-backend/internal/shared/geo"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// RegisterRoutes exposes the route computation API: POST /route for a single
// request, POST /routes for a batch. Provider failures come back as
// success=false with the failure message, never as a 5xx.
func RegisterRoutes(r fiber.Router, coordinator *Coordinator) {
	r.Post("/route", func(c *fiber.Ctx) error {
		var req Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid parameters provided")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates provided")
		}

		computed, err := coordinator.RequestRoute(c.Context(), req.Start, req.End, req.Profile)
		if err != nil {
			return c.JSON(apiResponse{
				Success: false,
				Data:    Route{Points: []geo.Point{}, Profile: ProfileDriving},
				Message: err.Error(),
			})
		}
		return c.JSON(apiResponse{Success: true, Data: computed})
	})

	r.Post("/routes", func(c *fiber.Ctx) error {
		var reqs []Request
		if err := c.BodyParser(&reqs); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid parameters provided")
		}

		results := make([]Route, 0, len(reqs))
		for _, req := range reqs {
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates provided")
			}
			computed, err := coordinator.RequestRoute(c.Context(), req.Start, req.End, req.Profile)
			if err != nil {
				return c.JSON(apiResponse{Success: false, Data: results, Message: err.Error()})
			}
			results = append(results, computed)
		}
		return c.JSON(apiResponse{Success: true, Data: results})
	})
}
