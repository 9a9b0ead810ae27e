package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *airquality.Service) {
	app.Get("/aqi", func(c *fiber.Ctx) error {
		snap, err := service.SensorSnapshot(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(snap)
	})

	app.Get("/aqi_matrix", func(c *fiber.Ctx) error {
		res, err := service.AQIMatrix(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"timestamp": res.Timestamp,
			"sensors":   res.Sensors,
			"grid_size": res.Grid.N,
			"matrix":    res.Grid,
			"min":       res.Min,
			"max":       res.Max,
		})
	})

	app.Post("/generate_aqi", func(c *fiber.Ctx) error {
		var req generateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "provide at least one sensor with x and y in [0, 1]")
		}

		res, err := service.GenerateAQI(req.Sensors)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"grid_size":  res.Grid.N,
			"aqi_matrix": res.Grid,
			"min":        res.Min,
			"max":        res.Max,
		})
	})

	app.Get("/population_matrix", func(c *fiber.Ctx) error {
		res, err := service.PopulationMatrix(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"timestamp": res.Timestamp,
			"dataset":   res.Dataset,
			"matrix":    res.Grid,
		})
	})

	app.Get("/priority_zones", func(c *fiber.Ctx) error {
		q := priorityQuery{TopK: service.TopK()}
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "top_k must be an integer")
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "top_k must be at least 1")
		}

		res, err := service.PriorityZones(c.UserContext(), q.TopK)
		if err != nil {
			return toFiberError(err)
		}

		body := fiber.Map{
			"timestamp": res.Timestamp,
			"dataset":   res.Dataset,
			"weights":   res.Weights,
			"top_zones": res.Zones,
		}
		// Older clients read the default ranking under top_5.
		if q.TopK == 5 {
			body["top_5"] = res.Zones
		}
		return c.JSON(body)
	})
}

// generateRequest is the body of POST /generate_aqi.
type generateRequest struct {
	Sensors []airquality.Reading `json:"sensors" validate:"required,min=1,dive"`
}

// priorityQuery holds query parameters for the priority endpoint.
// A top_k above the cell count returns every cell.
type priorityQuery struct {
	TopK int `query:"top_k" validate:"min=1"`
}

// toFiberError keeps the core error kinds distinguishable to callers.
func toFiberError(err error) error {
	switch {
	case errors.Is(err, airquality.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, airquality.ErrNoDataAvailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "no population data available")
	case errors.Is(err, airquality.ErrUpstreamUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "sensor server unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute result")
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
