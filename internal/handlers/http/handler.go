package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/scheduler"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/condition"
)

const (
	refreshTimeout = 30 * time.Second
	maxDays        = 7
)

const errNoData = "no data published yet"

type stationReader interface {
	Current() (models.State, bool)
	Status() scheduler.Status
	Trigger(ctx context.Context, trigger string) error
}

type Handler struct {
	station stationReader
}

func NewHandler(st stationReader) *Handler {
	return &Handler{station: st}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/weather", h.GetWeather)
	r.GET("/weather/forecast", h.GetForecast)
	r.POST("/weather/refresh", h.Refresh)
	r.GET("/status", h.GetStatus)
	r.GET("/conditions", h.GetConditions)
}

type weatherResponse struct {
	models.CurrentSnapshot
	UpdatedAt time.Time `json:"updated_at"`
}

type forecastQuery struct {
	Days *int `form:"days" binding:"omitempty,min=1,max=7"`
}

type forecastResponse struct {
	StationID string                 `json:"station_id"`
	UpdatedAt time.Time              `json:"updated_at"`
	Forecast  []models.ForecastEntry `json:"forecast"`
}

type refreshResponse struct {
	Status scheduler.Status `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// GetWeather returns the last published snapshot.
func (h *Handler) GetWeather(c *gin.Context) {
	state, ok := h.station.Current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoData})
		return
	}

	c.JSON(http.StatusOK, weatherResponse{CurrentSnapshot: state.Snapshot, UpdatedAt: state.UpdatedAt})
}

// GetForecast returns up to ?days= entries of the last published forecast.
func (h *Handler) GetForecast(c *gin.Context) {
	var q forecastQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer within 1..7"})
		return
	}

	state, ok := h.station.Current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoData})
		return
	}

	days := maxDays
	if q.Days != nil {
		days = *q.Days
	}
	forecast := state.Forecast
	if len(forecast) > days {
		forecast = forecast[:days]
	}
	if forecast == nil {
		forecast = []models.ForecastEntry{}
	}

	c.JSON(http.StatusOK, forecastResponse{
		StationID: state.Snapshot.StationID,
		UpdatedAt: state.UpdatedAt,
		Forecast:  forecast,
	})
}

// Refresh runs an update cycle now, or joins the running one.
func (h *Handler) Refresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), refreshTimeout)
	defer cancel()

	err := h.station.Trigger(ctx, scheduler.TriggerManual)
	if errors.Is(err, scheduler.ErrStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	resp := refreshResponse{Status: h.station.Status()}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.station.Status())
}

// GetConditions lists the raw NMC condition strings and the code each maps to.
func (h *Handler) GetConditions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"conditions": condition.Known(),
		"fallback":   models.ConditionExceptional,
	})
}
