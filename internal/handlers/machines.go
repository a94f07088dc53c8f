package handlers

import (
	"net/http"

	"roaster_control/internal/models"
	"roaster_control/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusAdded   = "added"
	statusRemoved = "removed"
	statusSent    = "sent"
	statusMarked  = "marked"
	statusSet     = "set"

	errAddMachine    = "failed to add machine"
	errRemoveMachine = "failed to remove machine"
	errGetState      = "failed to load state"
	errSessionCmd    = "failed to send session command"
	errInvalidBody   = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for registering a machine.
type addMachineRequest struct {
	ID       string                      `json:"id" binding:"required"`
	Controls []models.ControlConfig      `json:"controls"`
	Extras   []models.ExtraChannelConfig `json:"extras"`
}

// Request DTO for session commands.
type sessionRequest struct {
	Command string `json:"command" binding:"required"`
}

// Request DTO for marking a milestone.
type milestoneRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// Request DTO for setting a control channel (native scale).
type controlRequest struct {
	Channel string  `json:"channel" binding:"required"`
	Value   float64 `json:"value"`
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

// @Summary      List machines
// @Tags         machines
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/machines [get]
// @Security     BearerAuth
func (h *Handler) listMachines(c *gin.Context) {
	ids := h.services.Machine.List()
	c.JSON(http.StatusOK, gin.H{"count": len(ids), "machines": ids})
}

// @Summary      Register a machine
// @Description  Channel configuration is immutable for the machine's lifetime
// @Tags         machines
// @Accept       json
// @Produce      json
// @Param        body  body  addMachineRequest  true  "Machine payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines [post]
// @Security     BearerAuth
func (h *Handler) addMachine(c *gin.Context) {
	var req addMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	if err := h.services.Machine.Add(req.ID, req.Controls, req.Extras); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errAddMachine, "machine_add_failed", err, "machine", req.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAdded, "id": req.ID})
}

// @Summary      Remove a machine
// @Tags         machines
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/machines/{machine} [delete]
// @Security     BearerAuth
func (h *Handler) removeMachine(c *gin.Context) {
	id := c.Param("machine")
	if err := h.services.Machine.Remove(id); err != nil {
		h.logAndJSONError(c, http.StatusNotFound, errRemoveMachine, "machine_remove_failed", err, "machine", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRemoved, "id": id})
}

// @Summary      Get machine state
// @Tags         machines
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.State(c.Request.Context(), c.Param("machine"))
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, errGetState, "machine_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Send a session command
// @Description  START_MONITORING | STOP_MONITORING | START_RECORDING | STOP_RECORDING | RESET | RESYNC
// @Tags         machines
// @Accept       json
// @Produce      json
// @Param        body  body  sessionRequest  true  "Command payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/session [post]
// @Security     BearerAuth
func (h *Handler) sessionCommand(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	id := c.Param("machine")
	if err := h.services.Machine.Session(c.Request.Context(), id, service.SessionCommand(req.Command)); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errSessionCmd, "session_command_failed", err, "machine", id, "command", req.Command)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSent, "command": req.Command})
}

// @Summary      Mark a roast milestone
// @Tags         machines
// @Accept       json
// @Produce      json
// @Param        body  body  milestoneRequest  true  "Milestone payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/milestone [post]
// @Security     BearerAuth
func (h *Handler) markMilestone(c *gin.Context) {
	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	id := c.Param("machine")
	if err := h.services.Machine.Mark(c.Request.Context(), id, models.RoastEventKind(req.Kind)); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "failed to mark milestone", "milestone_failed", err, "machine", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusMarked, "kind": req.Kind})
}

// @Summary      Set a control channel
// @Description  Value is on the channel's native scale; normalization to the wire range happens host-side
// @Tags         machines
// @Accept       json
// @Produce      json
// @Param        body  body  controlRequest  true  "Control payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/machines/{machine}/control [post]
// @Security     BearerAuth
func (h *Handler) setControl(c *gin.Context) {
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	id := c.Param("machine")
	if err := h.services.Machine.SetControl(c.Request.Context(), id, req.Channel, req.Value); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "failed to set control", "control_set_failed", err, "machine", id, "channel", req.Channel)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet, "channel": req.Channel, "value": req.Value})
}
