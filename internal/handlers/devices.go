package handlers

import (
	"net/http"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

type addDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required" example:"inc-01"`
	Name     string `json:"name,omitempty" example:"Shed incubator"`
	Location string `json:"location,omitempty" example:"Barn"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List linked devices with their status
// @Tags         devices
// @Produce      json
// @Success      200  {array}   service.DeviceCard
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	cards, err := h.services.ListDevices(c.Request.Context(), userID(c))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load devices", "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// @Summary      Link a device, creating it when unknown
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body      addDeviceRequest  true  "Device"
// @Success      201   {object}  models.Device
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/devices [post]
// @Security     BearerAuth
func (h *Handler) addDevice(c *gin.Context) {
	var req addDeviceRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	d, err := h.services.AddDevice(c.Request.Context(), userID(c), service.NewDevice{
		DeviceID: req.DeviceID,
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		h.respondServiceError(c, err, "device_add_failed", "device_id", req.DeviceID)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// @Summary      Device card
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  service.DeviceCard
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id} [get]
// @Security     BearerAuth
func (h *Handler) getDevice(c *gin.Context) {
	card, err := h.services.GetDevice(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err, "device_get_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, card)
}

// @Summary      Unlink a device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id} [delete]
// @Security     BearerAuth
func (h *Handler) removeDevice(c *gin.Context) {
	if err := h.services.RemoveDevice(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.respondServiceError(c, err, "device_remove_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// @Summary      Update targets, tolerances or animal type
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Device ID"
// @Param        body  body      models.StatePatch  true  "Fields to change"
// @Success      200   {object}  models.DeviceState
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/devices/{id}/state [patch]
// @Security     BearerAuth
func (h *Handler) patchState(c *gin.Context) {
	var patch models.StatePatch
	if !h.bindJSONOrBadRequest(c, &patch) {
		return
	}
	st, err := h.services.PatchState(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondServiceError(c, err, "device_state_patch_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Animal types
// @Tags         devices
// @Produce      json
// @Success      200  {array}   models.Animal
// @Router       /api/v1/animals [get]
// @Security     BearerAuth
func (h *Handler) listAnimals(c *gin.Context) {
	animals, err := h.services.ListAnimals(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load animals", "animals_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, animals)
}
