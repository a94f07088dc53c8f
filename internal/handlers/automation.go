package handlers

import (
	"context"
	"net/http"

	"roaster_control/internal/trigger"

	"github.com/gin-gonic/gin"
)

// Request DTO for replacing the live schedule.
type putScheduleRequest struct {
	Name  string         `json:"name"`
	Steps []trigger.Step `json:"steps"`
}

// Request DTO for importing a per-channel time series.
type importScheduleRequest struct {
	Series map[string][]trigger.TimeValue `json:"series" binding:"required"`
}

// Request DTO for persisting the live schedule.
type saveScheduleRequest struct {
	Name string `json:"name" binding:"required"`
}

// @Summary      Get live schedule
// @Tags         automation
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	sched, err := h.services.Automation.Schedule(c.Param("machine"))
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to load schedule", "schedule_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"schedule": sched,
		"display":  trigger.DisplaySteps(sched.Steps),
	})
}

// @Summary      Replace live schedule
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        body  body  putScheduleRequest  true  "Schedule payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/schedule [put]
// @Security     BearerAuth
func (h *Handler) putSchedule(c *gin.Context) {
	var req putScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	sched := trigger.Schedule{Name: req.Name, Steps: req.Steps, Status: trigger.ScheduleIdle}
	if err := h.services.Automation.SetSchedule(c.Param("machine"), sched); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to set schedule", "schedule_put_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet})
}

func (h *Handler) startSchedule(c *gin.Context) {
	h.scheduleOp(c, h.services.Automation.StartSchedule, "schedule_start_failed")
}

func (h *Handler) pauseSchedule(c *gin.Context) {
	h.scheduleOp(c, h.services.Automation.PauseSchedule, "schedule_pause_failed")
}

func (h *Handler) resetSchedule(c *gin.Context) {
	h.scheduleOp(c, h.services.Automation.ResetSchedule, "schedule_reset_failed")
}

func (h *Handler) scheduleOp(c *gin.Context, op func(ctx context.Context, id string) error, logKey string) {
	id := c.Param("machine")
	if err := op(c.Request.Context(), id); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "schedule operation failed", logKey, err, "machine", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Import schedule from per-channel series
// @Description  Series are keyed by control display name; unknown names are dropped
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        body  body  importScheduleRequest  true  "Series payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/schedule/import [post]
// @Security     BearerAuth
func (h *Handler) importSchedule(c *gin.Context) {
	var req importScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	sched, err := h.services.Automation.Import(c.Param("machine"), req.Series)
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to import schedule", "schedule_import_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet, "steps": len(sched.Steps)})
}

func (h *Handler) saveSchedule(c *gin.Context) {
	var req saveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	id := c.Param("machine")
	sched, err := h.services.Automation.Schedule(id)
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to load schedule", "schedule_save_failed", err)
		return
	}
	storedID, err := h.services.Automation.SaveSchedule(c.Request.Context(), id, req.Name, sched)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to save schedule", "schedule_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "id": storedID})
}

func (h *Handler) loadSchedule(c *gin.Context) {
	if err := h.services.Automation.LoadSchedule(c.Request.Context(), c.Param("machine"), c.Param("id")); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to load stored schedule", "schedule_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet})
}

func (h *Handler) listStoredSchedules(c *gin.Context) {
	stored, err := h.services.Automation.ListSchedules(c.Request.Context(), c.Param("machine"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list schedules", "schedule_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(stored), "schedules": stored})
}

func (h *Handler) deleteStoredSchedule(c *gin.Context) {
	if err := h.services.Automation.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to delete schedule", "schedule_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRemoved})
}
