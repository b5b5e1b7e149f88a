package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"shipment-tracker/internal/core/cache"
	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
	"shipment-tracker/internal/features/shipments/service"
)

// ShipmentHandler exposes the storage-core operation surface over HTTP.
// It is a thin shim: field-level validation and response shaping live
// here, every correctness rule lives below in the service and stores.
type ShipmentHandler struct {
	shipments *service.ShipmentService
	bulk      *service.BulkExecutor
	storage   *service.Storage
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewShipmentHandler creates a ShipmentHandler. The cache is optional;
// pass nil to disable lookup caching.
func NewShipmentHandler(shipments *service.ShipmentService, bulk *service.BulkExecutor, storage *service.Storage, c cache.Cache, cacheTTL time.Duration) *ShipmentHandler {
	return &ShipmentHandler{
		shipments: shipments,
		bulk:      bulk,
		storage:   storage,
		cache:     c,
		cacheTTL:  cacheTTL,
	}
}

// Register mounts all shipment routes on the app.
func (h *ShipmentHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/stats", h.GetStats)
	app.Get("/shipments", h.ListShipments)
	app.Post("/shipments", h.CreateShipment)
	app.Post("/shipments/batch", h.GetShipmentsBatch)
	app.Post("/shipments/bulk", h.BulkOperation)
	app.Get("/shipments/:trackingId", h.GetShipment)
	app.Patch("/shipments/:trackingId", h.UpdateShipment)
	app.Delete("/shipments/:trackingId", h.DeleteShipment)
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

func (h *ShipmentHandler) fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Message: message, RayID: rayID(c)})
}

func cacheKey(trackingID string) string {
	return "shipment:" + domain.NormalizeTrackingID(trackingID)
}

func (h *ShipmentHandler) cachedShipment(ctx context.Context, trackingID string) *domain.Shipment {
	if h.cache == nil {
		return nil
	}
	raw, err := h.cache.Get(ctx, cacheKey(trackingID))
	if err != nil {
		return nil
	}
	var s domain.Shipment
	if json.Unmarshal(raw, &s) != nil {
		return nil
	}
	return domain.Normalize(&s)
}

func (h *ShipmentHandler) cacheShipment(ctx context.Context, s *domain.Shipment) {
	if h.cache == nil || s == nil {
		return
	}
	if raw, err := json.Marshal(s); err == nil {
		h.cache.Set(ctx, cacheKey(s.TrackingID), raw, h.cacheTTL)
	}
}

func (h *ShipmentHandler) invalidate(ctx context.Context, trackingID string) {
	if h.cache != nil {
		h.cache.Delete(ctx, cacheKey(trackingID))
	}
}

// Health reports process liveness and the selected backend.
func (h *ShipmentHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "backend": string(h.storage.Kind())})
}

// GetStats returns the active backend's diagnostic summary.
func (h *ShipmentHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.storage.GetStats(c.Context())
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(stats)
}

// ListShipments returns one page of shipments, optionally filtered by
// status and search term.
func (h *ShipmentHandler) ListShipments(c *fiber.Ctx) error {
	page, err := h.shipments.List(c.Context(), domain.ListQuery{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", domain.DefaultPageLimit),
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(page)
}

// GetShipment returns one shipment by tracking id.
func (h *ShipmentHandler) GetShipment(c *fiber.Ctx) error {
	trackingID := c.Params("trackingId")
	if trackingID == "" {
		return h.fail(c, fiber.StatusBadRequest, "tracking id is required")
	}

	if s := h.cachedShipment(c.Context(), trackingID); s != nil {
		return c.JSON(s)
	}

	s, err := h.shipments.Get(c.Context(), trackingID)
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if s == nil {
		return h.fail(c, fiber.StatusNotFound, "shipment not found")
	}

	h.cacheShipment(c.Context(), s)
	return c.JSON(s)
}

// batchRequest carries the ids for a batch lookup.
type batchRequest struct {
	IDs []string `json:"ids"`
}

// GetShipmentsBatch returns the subset of shipments matching the given
// tracking ids. Unmatched ids are simply absent from the result.
func (h *ShipmentHandler) GetShipmentsBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return h.fail(c, fiber.StatusBadRequest, "ids must be a non-empty list")
	}

	result, err := h.shipments.GetMany(c.Context(), req.IDs)
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if result == nil {
		result = []*domain.Shipment{}
	}
	return c.JSON(fiber.Map{"data": result})
}

// CreateShipment registers a new shipment.
func (h *ShipmentHandler) CreateShipment(c *fiber.Ctx) error {
	var shipment domain.Shipment
	if err := c.BodyParser(&shipment); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.shipments.Create(c.Context(), &shipment)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrDuplicateTrackingID):
			return h.fail(c, fiber.StatusConflict, "tracking id already exists")
		case errors.Is(err, domain.ErrMalformedShipment):
			return h.fail(c, fiber.StatusBadRequest, err.Error())
		}
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateShipment applies a patch. A status, location or description in
// the patch flows through the tracking-event append decision.
func (h *ShipmentHandler) UpdateShipment(c *fiber.Ctx) error {
	trackingID := c.Params("trackingId")

	var patch domain.ShipmentPatch
	if err := c.BodyParser(&patch); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if patch.Status != nil {
		status, ok := domain.ParseStatus(string(*patch.Status))
		if !ok {
			return h.fail(c, fiber.StatusBadRequest, "unknown status value")
		}
		*patch.Status = status
	}

	updated, err := h.shipments.Update(c.Context(), trackingID, &patch)
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if updated == nil {
		return h.fail(c, fiber.StatusNotFound, "shipment not found")
	}

	h.invalidate(c.Context(), trackingID)
	return c.JSON(updated)
}

// DeleteShipment hard-removes a shipment.
func (h *ShipmentHandler) DeleteShipment(c *fiber.Ctx) error {
	trackingID := c.Params("trackingId")

	removed, err := h.shipments.Delete(c.Context(), trackingID)
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if !removed {
		return h.fail(c, fiber.StatusNotFound, "shipment not found")
	}

	h.invalidate(c.Context(), trackingID)
	return c.JSON(fiber.Map{"deleted": true})
}

// BulkOperation applies one operation across many shipments with
// per-item failure isolation.
func (h *ShipmentHandler) BulkOperation(c *fiber.Ctx) error {
	var req service.BulkRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.bulk.Execute(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrBulkInvalidRequest) {
			return h.fail(c, fiber.StatusBadRequest, err.Error())
		}
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(result)
}
