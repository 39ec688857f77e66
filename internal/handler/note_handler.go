package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/distructnote/api/internal/models"
	"github.com/distructnote/api/internal/service"
	appErrors "github.com/distructnote/api/pkg/errors"
	"github.com/distructnote/api/pkg/response"
)

// NoteHandler exposes the note lifecycle endpoints.
type NoteHandler struct {
	service *service.NoteService
}

// NewNoteHandler constructs a note handler.
func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{service: svc}
}

// Create godoc
// @Summary Create note
// @Description Create a self-destructing note
// @Tags Notes
// @Accept json
// @Produce json
// @Param payload body models.CreateNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	var req models.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.CreateNote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Access godoc
// @Summary Access note
// @Description Consume one view of a note, supplying the password when the note is protected
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Param password query string false "Note password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notes/{id} [get]
func (h *NoteHandler) Access(c *gin.Context) {
	view, err := h.service.AccessNote(c.Request.Context(), c.Param("id"), c.Query("password"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Meta godoc
// @Summary Probe note
// @Description Report whether a note exists and whether it requires a password, without consuming a view
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /notes/{id}/meta [get]
func (h *NoteHandler) Meta(c *gin.Context) {
	meta, err := h.service.Meta(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meta)
}

// RedeemView godoc
// @Summary Redeem view token
// @Description Re-render an already-consumed view from its short-lived token without spending another view
// @Tags Notes
// @Produce json
// @Param token query string true "View token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notes/view [get]
func (h *NoteHandler) RedeemView(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}
	view, err := h.service.RedeemViewToken(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}
