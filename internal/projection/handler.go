package projection

import (
	"errors"
	"net/http"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	httperr "github.com/Tab-and-Quill/spotify-music-history/internal/core/errors"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/summaries", s.HandleListKeys)
	r.GET("/v1/summaries/:period", s.HandleGetSummary)
	r.GET("/v1/summaries/:period/chart", s.HandleGetChart)

	if s.job != nil {
		r.POST("/v1/aggregations", s.HandleAggregate)
	}
}

// HandleListKeys handles GET /v1/summaries.
func (s *Service) HandleListKeys(c *gin.Context) {
	keys, err := s.Keys(c.Request.Context())
	if err != nil {
		writeStoreError(c, err, "Failed to list summaries")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	c.JSON(http.StatusOK, KeysResponse{Keys: keys})
}

// HandleGetSummary handles GET /v1/summaries/:period.
func (s *Service) HandleGetSummary(c *gin.Context) {
	period := c.Param("period")
	summary, err := s.Resolve(c.Request.Context(), period)
	if err != nil {
		writeResolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Period: summary.Period, Summary: summary})
}

// HandleGetChart handles GET /v1/summaries/:period/chart.
func (s *Service) HandleGetChart(c *gin.Context) {
	summary, err := s.Resolve(c.Request.Context(), c.Param("period"))
	if err != nil {
		writeResolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, Chart(summary))
}

// HandleAggregate handles POST /v1/aggregations.
func (s *Service) HandleAggregate(c *gin.Context) {
	res, err := s.Aggregate(c.Request.Context())
	if err != nil {
		if errors.Is(err, aggregation.ErrEmptyInput) {
			c.JSON(http.StatusConflict, httperr.ErrorResponse{
				ErrorType: httperr.HttpNoFilesError,
				Message:   "No files have been added yet",
			})
			return
		}
		if errors.Is(err, storage.ErrUnavailable) {
			writeStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpAggregationFailedError,
			Message:   "Aggregation failed",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "aggregationComplete", "results": res})
}

func writeResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidPeriodError,
			Message:   "Invalid period",
			Details:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpSummaryNotFoundError,
			Message:   "No aggregated data for period",
			Details:   c.Param("period"),
		})
	default:
		writeStoreError(c, err, "Failed to query summary")
	}
}

func writeStoreError(c *gin.Context, err error, msg string) {
	if errors.Is(err, storage.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpStorageUnavailable,
			Message:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   msg,
		Details:   err.Error(),
	})
}
