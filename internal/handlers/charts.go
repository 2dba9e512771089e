package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(c *gin.Context, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func (h *Handler) chartQuery(c *gin.Context) (service.ChartQuery, bool) {
	hours, err := queryInt(c, "hours")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.ChartQuery{}, false
	}
	smooth, err := queryInt(c, "smooth")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.ChartQuery{}, false
	}
	return service.ChartQuery{
		Hours:           hours,
		SmoothingWindow: smooth,
		Overlay:         monitor.ParseOverlay(c.Query("overlay")),
	}, true
}

func (h *Handler) dailyQuery(c *gin.Context) (service.DailyQuery, bool) {
	days, err := queryInt(c, "days")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.DailyQuery{}, false
	}
	return service.DailyQuery{CycleID: c.Query("cycle_id"), Days: days}, true
}

// @Summary      Recent chart with bands, domains and alert markers
// @Tags         charts
// @Produce      json
// @Param        id       path      string  true   "Device ID"
// @Param        hours    query     int     false  "Window in hours (default 24)"
// @Param        smooth   query     int     false  "Moving average window"
// @Param        overlay  query     string  false  "nearest | interpolated"
// @Success      200      {object}  monitor.Chart
// @Failure      400      {object}  map[string]string
// @Router       /api/v1/devices/{id}/chart [get]
// @Security     BearerAuth
func (h *Handler) getChart(c *gin.Context) {
	q, ok := h.chartQuery(c)
	if !ok {
		return
	}
	chart, err := h.services.Chart(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		h.respondServiceError(c, err, "chart_build_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, chart)
}

// @Summary      Daily averages of a cycle
// @Description  Without cycle_id the running cycle is used. Returns {"state":"no_cycle_selected"} when there is none.
// @Tags         charts
// @Produce      json
// @Param        id        path      string  true   "Device ID"
// @Param        cycle_id  query     string  false  "Cycle ID"
// @Param        days      query     int     false  "0, 7, 21 or 28"
// @Success      200       {object}  service.DailyReport
// @Failure      400       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /api/v1/devices/{id}/daily [get]
// @Security     BearerAuth
func (h *Handler) getDaily(c *gin.Context) {
	q, ok := h.dailyQuery(c)
	if !ok {
		return
	}
	report, err := h.services.Daily(c.Request.Context(), c.Param("id"), q)
	if errors.Is(err, monitor.ErrNoCycleSelected) {
		c.JSON(http.StatusOK, gin.H{"state": "no_cycle_selected"})
		return
	}
	if err != nil {
		h.respondServiceError(c, err, "daily_build_failed", "device_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Daily averages as a spreadsheet
// @Tags         charts
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id        path      string  true   "Device ID"
// @Param        cycle_id  query     string  false  "Cycle ID"
// @Param        days      query     int     false  "0, 7, 21 or 28"
// @Success      200       {file}    file
// @Failure      404       {object}  map[string]string
// @Router       /api/v1/devices/{id}/daily.xlsx [get]
// @Security     BearerAuth
func (h *Handler) exportDaily(c *gin.Context) {
	q, ok := h.dailyQuery(c)
	if !ok {
		return
	}
	deviceID := c.Param("id")
	raw, err := h.services.DailyWorkbook(c.Request.Context(), deviceID, q)
	if errors.Is(err, monitor.ErrNoCycleSelected) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.respondServiceError(c, err, "daily_export_failed", "device_id", deviceID)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-daily.xlsx"`, deviceID))
	c.Data(http.StatusOK, xlsxContentType, raw)
}
