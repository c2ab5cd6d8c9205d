package handler

import (
	"github.com/gin-gonic/gin"

	onboardingapp "github.com/lodgehr/backend/internal/application/onboarding"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/interfaces/http/middleware"
)

// OnboardingHandler handles session lifecycle and step progress endpoints
type OnboardingHandler struct {
	BaseHandler
	sessionService *onboardingapp.SessionService
}

// NewOnboardingHandler creates a new OnboardingHandler
func NewOnboardingHandler(sessionService *onboardingapp.SessionService) *OnboardingHandler {
	return &OnboardingHandler{
		sessionService: sessionService,
	}
}

// RegisterRoutes registers onboarding routes.
// Session creation is an HR operation; everything else is scoped to
// the invitation token carried in the Authorization header.
func (h *OnboardingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.CreateSession)

	session := rg.Group("/session")
	session.Use(middleware.InvitationToken())
	{
		session.GET("", h.GetSession)
		session.GET("/next-step", h.NextStep)
		session.POST("/submit", h.Submit)
		session.PUT("/steps/:stepID", h.SaveStep)
		session.PUT("/steps/:stepID/prefill", h.Prefill)
	}
}

// CreateSession starts onboarding for a hired employee and returns the
// invitation token. The token appears in this response only.
func (h *OnboardingHandler) CreateSession(c *gin.Context) {
	var req onboardingapp.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.sessionService.CreateSession(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetSession returns the full session view for the employee UI
func (h *OnboardingHandler) GetSession(c *gin.Context) {
	resp, err := h.sessionService.LoadSession(c.Request.Context(), middleware.GetInvitationToken(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SaveStep persists a step payload. Saves are idempotent: replaying
// an identical payload acknowledges without a second write.
func (h *OnboardingHandler) SaveStep(c *gin.Context) {
	var req onboardingapp.SaveStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.sessionService.SaveStep(
		c.Request.Context(),
		middleware.GetInvitationToken(c),
		onboarding.StepID(c.Param("stepID")),
		req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// NextStep returns the next step the employee should work on
func (h *OnboardingHandler) NextStep(c *gin.Context) {
	resp, err := h.sessionService.NextStep(c.Request.Context(), middleware.GetInvitationToken(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Prefill stages suggested values for a step without completing it
func (h *OnboardingHandler) Prefill(c *gin.Context) {
	var req onboardingapp.PrefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.sessionService.Prefill(
		c.Request.Context(),
		middleware.GetInvitationToken(c),
		onboarding.StepID(c.Param("stepID")),
		req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Submit finalizes a session that is pending review
func (h *OnboardingHandler) Submit(c *gin.Context) {
	resp, err := h.sessionService.Submit(c.Request.Context(), middleware.GetInvitationToken(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
