package api

import (
	"github.com/Tab-and-Quill/spotify-music-history/internal/schema"
	"github.com/gin-gonic/gin"
)

// Service exposes the active field spec over HTTP.
type Service struct {
	validator *schema.Validator
}

// NewService creates a new schema API service.
func NewService(val *schema.Validator) *Service {
	return &Service{validator: val}
}

// RegisterRoutes registers the schema API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	handler := NewHandler(s.validator)

	r.GET("/v1/schema", handler.HandleGet)
	r.POST("/v1/schema/validate", handler.HandleValidate)
}
