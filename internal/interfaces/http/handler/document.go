package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	documentapp "github.com/lodgehr/backend/internal/application/document"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/interfaces/http/middleware"
)

// DocumentHandler handles PDF generation, signing and download endpoints
type DocumentHandler struct {
	BaseHandler
	documentService *documentapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *documentapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// RegisterRoutes registers document routes under the token-scoped
// session group
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	session := rg.Group("/session")
	session.Use(middleware.InvitationToken())
	{
		session.GET("/documents", h.List)
		session.POST("/steps/:stepID/document", h.Generate)
		session.POST("/documents/:documentID/sign", h.Sign)
		session.GET("/documents/:documentID/download", h.Download)
	}
}

// Generate renders the official form for a completed step
func (h *DocumentHandler) Generate(c *gin.Context) {
	var req documentapp.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	resp, err := h.documentService.Generate(
		c.Request.Context(),
		middleware.GetInvitationToken(c),
		onboarding.StepID(c.Param("stepID")),
		req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// A retry against an already-finalized document is answered with
	// the signed document, not a fresh creation
	if resp.AlreadySigned {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// Sign embeds the employee signature into a generated document.
// The signer IP comes from the connection, never from the client body.
func (h *DocumentHandler) Sign(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		h.BadRequest(c, "Invalid document id")
		return
	}

	var req documentapp.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.IPAddress = c.ClientIP()

	resp, err := h.documentService.Sign(
		c.Request.Context(),
		middleware.GetInvitationToken(c),
		documentID,
		req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Download returns a short-lived URL for a document artifact
func (h *DocumentHandler) Download(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		h.BadRequest(c, "Invalid document id")
		return
	}

	resp, err := h.documentService.Download(
		c.Request.Context(),
		middleware.GetInvitationToken(c),
		documentID,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns every document generated for the session, superseded
// versions included
func (h *DocumentHandler) List(c *gin.Context) {
	resp, err := h.documentService.List(c.Request.Context(), middleware.GetInvitationToken(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
