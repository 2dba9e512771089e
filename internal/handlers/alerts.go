package handlers

import (
	"errors"
	"net/http"

	"incubator_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

type clearAlertsRequest struct {
	// Must be exactly DELETE.
	Confirmation string `json:"confirmation" example:"DELETE"`
}

type wipeRequest struct {
	// Must be 100.
	Slider int `json:"slider" example:"100"`
}

// @Summary      Alert log, newest first
// @Tags         alerts
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {array}   models.AlertRecord
// @Router       /api/v1/devices/{id}/alerts [get]
// @Security     BearerAuth
func (h *Handler) listAlerts(c *gin.Context) {
	alerts, err := h.services.ListAlerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load alerts", "alerts_list_failed", err, "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// @Summary      Evaluate the current state against the alert rules
// @Tags         alerts
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}  "logged"
// @Router       /api/v1/devices/{id}/alerts/evaluate [post]
// @Security     BearerAuth
func (h *Handler) evaluateAlerts(c *gin.Context) {
	logged, err := h.services.EvaluateDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err, "alerts_evaluate_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged": logged})
}

// @Summary      Clear the alert log
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Device ID"
// @Param        body  body      clearAlertsRequest  true  "Typed confirmation"
// @Success      200   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/devices/{id}/alerts/clear [post]
// @Security     BearerAuth
func (h *Handler) clearAlerts(c *gin.Context) {
	var req clearAlertsRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	n, err := h.services.ClearAlerts(c.Request.Context(), c.Param("id"), req.Confirmation)
	if err != nil {
		h.respondServiceError(c, err, "alerts_clear_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// @Summary      Wipe all device data
// @Description  Deletes measurements, alerts, cycles and state in order. A failed step stops the sequence; the report lists what was done.
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Device ID"
// @Param        body  body      wipeRequest  true  "Slider position"
// @Success      200   {object}  service.WipeReport
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/devices/{id}/wipe [post]
// @Security     BearerAuth
func (h *Handler) wipeDevice(c *gin.Context) {
	var req wipeRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	deviceID := c.Param("id")
	report, err := h.services.Wipe(c.Request.Context(), deviceID, req.Slider)
	if err != nil {
		if errors.Is(err, service.ErrWipeNotArmed) {
			h.respondServiceError(c, err, "device_wipe_failed")
			return
		}
		if h.log != nil {
			h.log.Errorw("device_wipe_failed", "device_id", deviceID, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wipe stopped at " + string(report.Failed), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}
