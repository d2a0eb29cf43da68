package tracking

import (
	"context"
	"errors"
	"time"

	"backend-trailrecorder/internal/shared/geo"
	"backend-trailrecorder/internal/trackdoc"

	"github.com/gofiber/fiber/v2"
)

const pushTimeout = 2 * time.Second

type fixRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func RegisterRoutes(r fiber.Router, rec *Recorder, sink *LocationSampleSink, exporter *Exporter, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(rec.Snapshot())
	})

	r.Get("/sink", func(c *fiber.Ctx) error {
		return c.JSON(sink.Stats())
	})

	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(rec.Start())
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(rec.Stop())
	})

	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var req fixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Latitude == nil || req.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude required")
		}

		ctx, cancel := context.WithTimeout(c.Context(), pushTimeout)
		defer cancel()
		if err := sink.Push(ctx, geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "location queue full")
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/export", func(c *fiber.Ctx) error {
		data, _, err := exporter.Render()
		if err != nil {
			return exportError(err)
		}
		c.Attachment(exporter.Name())
		return c.Send(data)
	})

	r.Post("/export", authMiddleware, func(c *fiber.Ctx) error {
		result, err := exporter.Export(c.Context())
		if err != nil {
			return exportError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Post("/import", authMiddleware, func(c *fiber.Ctx) error {
		points, err := trackdoc.Deserialize(c.Body())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(ImportResult{
			PointCount: len(points),
			DistanceKm: geo.PathLengthKm(points),
		})
	})
}

func exportError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyTrack):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, trackdoc.ErrUnencodable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
