package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/request"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/response"
)

// SessionHandler handles dining-session HTTP requests
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Start handles finding or creating the session for a table visit
func (h *SessionHandler) Start(c *gin.Context) {
	var req request.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	session, err := h.sessionService.FindOrCreate(c.Request.Context(), &service.FindOrCreateInput{
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		OrderIDs:     req.OrderIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Session resolved successfully", session)
}

// ListActive handles listing the restaurant's active sessions
func (h *SessionHandler) ListActive(c *gin.Context) {
	sessions, err := h.sessionService.GetActiveSessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Active sessions retrieved successfully", sessions)
}

// Get handles retrieving a session together with its bills
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")

	session, bills, err := h.sessionService.GetSessionDetails(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Session retrieved successfully", gin.H{
		"session": session,
		"bills":   bills,
	})
}

// AttachOrders handles recording new orders against a session
func (h *SessionHandler) AttachOrders(c *gin.Context) {
	sessionID := c.Param("id")

	var req request.AttachOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	session, err := h.sessionService.AttachOrders(c.Request.Context(), sessionID, req.OrderIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders attached successfully", session)
}
