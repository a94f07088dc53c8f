package handlers

import (
	"context"
	"net/http"

	"roaster_control/internal/trigger"

	"github.com/gin-gonic/gin"
)

// Request DTO for replacing the live alarm set.
type putAlarmsRequest struct {
	Name   string          `json:"name"`
	Alarms []trigger.Alarm `json:"alarms"`
}

// Request DTO for silencing alarms; empty id silences all.
type silenceRequest struct {
	AlarmID string `json:"alarm_id"`
}

// Request DTO for persisting the live alarm set.
type saveAlarmsRequest struct {
	Name string `json:"name" binding:"required"`
}

// @Summary      Get live alarm set
// @Tags         alarms
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/alarms [get]
// @Security     BearerAuth
func (h *Handler) getAlarms(c *gin.Context) {
	set, err := h.services.Alarms.AlarmSet(c.Param("machine"))
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to load alarms", "alarms_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// @Summary      Replace live alarm set
// @Tags         alarms
// @Accept       json
// @Produce      json
// @Param        body  body  putAlarmsRequest  true  "Alarm set payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/alarms [put]
// @Security     BearerAuth
func (h *Handler) putAlarms(c *gin.Context) {
	var req putAlarmsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	set := trigger.AlarmSet{Name: req.Name, Alarms: req.Alarms, Status: trigger.AlarmsIdle}
	if err := h.services.Alarms.SetAlarmSet(c.Param("machine"), set); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to set alarms", "alarms_put_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet})
}

func (h *Handler) armAlarms(c *gin.Context) {
	h.alarmOp(c, h.services.Alarms.Arm, "alarms_arm_failed")
}

func (h *Handler) disarmAlarms(c *gin.Context) {
	h.alarmOp(c, h.services.Alarms.Disarm, "alarms_disarm_failed")
}

func (h *Handler) resetAlarms(c *gin.Context) {
	h.alarmOp(c, h.services.Alarms.ResetAlarms, "alarms_reset_failed")
}

func (h *Handler) alarmOp(c *gin.Context, op func(ctx context.Context, id string) error, logKey string) {
	id := c.Param("machine")
	if err := op(c.Request.Context(), id); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "alarm operation failed", logKey, err, "machine", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Silence alarms
// @Description  With alarm_id silences one alarm, without it silences all
// @Tags         alarms
// @Accept       json
// @Produce      json
// @Param        body  body  silenceRequest  false  "Silence payload"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/alarms/silence [post]
// @Security     BearerAuth
func (h *Handler) silenceAlarms(c *gin.Context) {
	var req silenceRequest
	_ = c.ShouldBindJSON(&req) // empty body means "silence all"

	id := c.Param("machine")
	var err error
	if req.AlarmID == "" {
		err = h.services.Alarms.SilenceAll(c.Request.Context(), id)
	} else {
		err = h.services.Alarms.Silence(c.Request.Context(), id, req.AlarmID)
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to silence alarms", "alarms_silence_failed", err, "machine", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (h *Handler) saveAlarmSet(c *gin.Context) {
	var req saveAlarmsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	id := c.Param("machine")
	set, err := h.services.Alarms.AlarmSet(id)
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to load alarms", "alarms_save_failed", err)
		return
	}
	storedID, err := h.services.Alarms.SaveAlarmSet(c.Request.Context(), id, req.Name, set)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to save alarms", "alarms_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "id": storedID})
}

func (h *Handler) loadAlarmSet(c *gin.Context) {
	if err := h.services.Alarms.LoadAlarmSet(c.Request.Context(), c.Param("machine"), c.Param("id")); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, "failed to load stored alarms", "alarms_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet})
}

func (h *Handler) listStoredAlarmSets(c *gin.Context) {
	stored, err := h.services.Alarms.ListAlarmSets(c.Request.Context(), c.Param("machine"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list alarm sets", "alarms_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(stored), "alarm_sets": stored})
}

func (h *Handler) deleteStoredAlarmSet(c *gin.Context) {
	if err := h.services.Alarms.DeleteAlarmSet(c.Request.Context(), c.Param("id")); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to delete alarm set", "alarms_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRemoved})
}
