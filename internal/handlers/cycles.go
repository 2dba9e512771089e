package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type startCycleRequest struct {
	AnimalType string `json:"animal_type" binding:"required" example:"chicken"`
}

// @Summary      Incubation cycles, most recent first
// @Tags         cycles
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {array}   models.Cycle
// @Router       /api/v1/devices/{id}/cycles [get]
// @Security     BearerAuth
func (h *Handler) listCycles(c *gin.Context) {
	cycles, err := h.services.ListCycles(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load cycles", "cycles_list_failed", err, "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, cycles)
}

// @Summary      Start a cycle, ending the running one
// @Tags         cycles
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Device ID"
// @Param        body  body      startCycleRequest  true  "Animal type"
// @Success      201   {object}  models.Cycle
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/devices/{id}/cycles [post]
// @Security     BearerAuth
func (h *Handler) startCycle(c *gin.Context) {
	var req startCycleRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	cycle, err := h.services.StartCycle(c.Request.Context(), c.Param("id"), req.AnimalType)
	if err != nil {
		h.respondServiceError(c, err, "cycle_start_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusCreated, cycle)
}

// @Summary      End a cycle
// @Tags         cycles
// @Produce      json
// @Param        id       path      string  true  "Device ID"
// @Param        cycleId  path      string  true  "Cycle ID"
// @Success      200      {object}  models.Cycle
// @Failure      404      {object}  map[string]string
// @Router       /api/v1/devices/{id}/cycles/{cycleId}/end [post]
// @Security     BearerAuth
func (h *Handler) endCycle(c *gin.Context) {
	cycle, err := h.services.EndCycle(c.Request.Context(), c.Param("id"), c.Param("cycleId"))
	if err != nil {
		h.respondServiceError(c, err, "cycle_end_failed", "device_id", c.Param("id"), "cycle_id", c.Param("cycleId"))
		return
	}
	c.JSON(http.StatusOK, cycle)
}

// @Summary      Delete a cycle
// @Tags         cycles
// @Produce      json
// @Param        id       path      string  true  "Device ID"
// @Param        cycleId  path      string  true  "Cycle ID"
// @Success      200      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/v1/devices/{id}/cycles/{cycleId} [delete]
// @Security     BearerAuth
func (h *Handler) deleteCycle(c *gin.Context) {
	if err := h.services.DeleteCycle(c.Request.Context(), c.Param("id"), c.Param("cycleId")); err != nil {
		h.respondServiceError(c, err, "cycle_delete_failed", "device_id", c.Param("id"), "cycle_id", c.Param("cycleId"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
