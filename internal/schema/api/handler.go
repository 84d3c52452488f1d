package api

import (
	"errors"
	"net/http"

	coreErrors "github.com/Tab-and-Quill/spotify-music-history/internal/core/errors"
	"github.com/Tab-and-Quill/spotify-music-history/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// Handler handles schema HTTP requests.
type Handler struct {
	validator *schema.Validator
}

// NewHandler creates a new schema API handler.
func NewHandler(val *schema.Validator) *Handler {
	return &Handler{validator: val}
}

// HandleGet handles GET /v1/schema.
func (h *Handler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, h.validator.Spec().Describe())
}

// HandleValidate handles POST /v1/schema/validate (dry-run).
// The body is a raw batch; nothing is stored.
func (h *Handler) HandleValidate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, coreErrors.ErrorResponse{
			ErrorType: coreErrors.HttpInvalidJsonError,
			Message:   "Failed to read request body",
		})
		return
	}

	var batch interface{}
	if err := json.Unmarshal(body, &batch); err != nil {
		c.JSON(http.StatusBadRequest, coreErrors.ErrorResponse{
			ErrorType: coreErrors.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}

	if err := h.validator.ValidateBatch(batch); err != nil {
		resp := coreErrors.ErrorResponse{
			ErrorType: coreErrors.HttpSchemaValidationError,
			Message:   err.Error(),
		}
		var detailer schema.ValidationDetailer
		if errors.As(err, &detailer) {
			resp.Details = detailer.Details()
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	spec := h.validator.Spec()
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"schema":  spec.Name,
		"version": spec.Version,
	})
}
