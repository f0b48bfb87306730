package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HGakash/agrihub/internal/weather"
)

func (h *Handler) forecast(c *gin.Context) {
	coords, err := weather.ParseCoordinates(c.Query("lat"), c.Query("lon"))
	if err != nil {
		h.weatherError(c, err)
		return
	}

	forecast, err := h.weather.Forecast(c.Request.Context(), coords)
	if err != nil {
		h.weatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      forecast,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type batchForecastRequest struct {
	Locations []weather.BatchLocation `json:"locations"`
}

func (h *Handler) batchForecast(c *gin.Context) {
	var req batchForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "locations array is required"})
		return
	}

	results, err := h.weather.CurrentBatch(c.Request.Context(), req.Locations)
	if err != nil {
		h.weatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": results})
}

func (h *Handler) weatherError(c *gin.Context, err error) {
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, weather.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errorMessage(err)})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "weather service error", "details": upstream.Reason})
	case errors.Is(err, weather.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "weather service unavailable"})
	default:
		h.log.Error().Err(err).Msg("weather request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}
