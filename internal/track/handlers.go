package track

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// RegisterRoutes exposes the geo-track record store. Writes require a device
// token, reads are open like the rest of the query API.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req GeoTrack
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid parameters provided")
		}
		if req.RandomizedID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "randomized_id required")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates provided")
		}

		created, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": created})
	})

	r.Get("/", func(c *fiber.Ctx) error {
		tracks, err := svc.List(c.Context(), c.Query("randomized_id"), c.QueryInt("limit", 100), c.QueryInt("offset", 0))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if tracks == nil {
			tracks = []GeoTrack{}
		}
		return c.JSON(fiber.Map{"success": true, "data": tracks})
	})

	r.Get("/count", func(c *fiber.Ctx) error {
		count, err := svc.Count(c.Context(), c.Query("randomized_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"count": count}})
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"success": true, "data": stats})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		tr, err := svc.ByID(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, ErrNotFound.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"success": true, "data": tr})
	})
}
