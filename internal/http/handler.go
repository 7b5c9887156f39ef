package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/service"
)

type Handler struct {
	attributions *service.AttributionService
	vehicles     *service.VehicleService
	alerts       *service.AlertService
	log          zerolog.Logger
}

func NewHandler(
	attributions *service.AttributionService,
	vehicles *service.VehicleService,
	alerts *service.AlertService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		attributions: attributions,
		vehicles:     vehicles,
		alerts:       alerts,
		log:          log,
	}
}

// Register подключает маршруты API. alertsCache оборачивает только чтение ленты.
func (h *Handler) Register(router *gin.Engine, alertsCache gin.HandlerFunc) {
	api := router.Group("/api")

	api.POST("/vehicles/:id/attributions", h.createAttribution)
	api.GET("/vehicles/:id/attributions/current", h.listCurrent)
	api.GET("/vehicles/:id/attributions/history", h.listHistory)
	api.GET("/vehicles/:id/occupancy", h.getOccupancy)
	api.PATCH("/vehicles/:id/status", h.changeStatus)
	api.PATCH("/vehicles/:id/overrides", h.updateOverrides)

	api.POST("/attributions/:id/end", h.endAttribution)
	api.PATCH("/attributions/:id/start", h.reschedule)

	alerts := api.Group("/alerts")
	if alertsCache != nil {
		alerts.Use(alertsCache)
	}
	alerts.GET("", h.getAlerts)
	alerts.GET("/export", h.exportAlerts)
}

type createAttributionRequest struct {
	HolderKind string  `json:"holder_kind" binding:"required"`
	HolderID   string  `json:"holder_id" binding:"required"`
	Role       string  `json:"role" binding:"required"`
	DateDebut  string  `json:"date_debut" binding:"required"`
	LoueurID   *string `json:"loueur_id"`
	Notes      string  `json:"notes"`
}

func (h *Handler) createAttribution(c *gin.Context) {
	vehicleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req createAttributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	holderID, err := uuid.Parse(strings.TrimSpace(req.HolderID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holder_id"})
		return
	}

	start, err := parseDate(req.DateDebut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_debut"})
		return
	}

	var loueurID *uuid.UUID
	if req.LoueurID != nil && strings.TrimSpace(*req.LoueurID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*req.LoueurID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loueur_id"})
			return
		}
		loueurID = &parsed
	}

	attribution, err := h.attributions.Create(c.Request.Context(), service.CreateAttributionInput{
		VehicleID:  vehicleID,
		HolderKind: model.HolderKind(strings.ToLower(strings.TrimSpace(req.HolderKind))),
		HolderID:   holderID,
		Role:       model.AttributionRole(strings.ToLower(strings.TrimSpace(req.Role))),
		DateDebut:  start,
		LoueurID:   loueurID,
		Notes:      req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAttributionResponse(*attribution))
}

type dateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h *Handler) endAttribution(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	date, ok := bindDate(c)
	if !ok {
		return
	}

	attribution, err := h.attributions.End(c.Request.Context(), id, date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttributionResponse(*attribution))
}

func (h *Handler) reschedule(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	date, ok := bindDate(c)
	if !ok {
		return
	}

	attribution, err := h.attributions.Reschedule(c.Request.Context(), id, date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttributionResponse(*attribution))
}

func (h *Handler) listCurrent(c *gin.Context) {
	h.listAttributions(c, h.attributions.ListCurrent)
}

func (h *Handler) listHistory(c *gin.Context) {
	h.listAttributions(c, h.attributions.ListHistory)
}

func (h *Handler) listAttributions(
	c *gin.Context,
	list func(ctx context.Context, vehicleID uuid.UUID) ([]model.Attribution, error),
) {
	vehicleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	attributions, err := list(c.Request.Context(), vehicleID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := make([]attributionResponse, 0, len(attributions))
	for _, attribution := range attributions {
		response = append(response, toAttributionResponse(attribution))
	}
	c.JSON(http.StatusOK, gin.H{"data": response})
}

func (h *Handler) getOccupancy(c *gin.Context) {
	vehicleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.vehicles.Occupancy(c.Request.Context(), vehicleID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type changeStatusRequest struct {
	Statut    string `json:"statut" binding:"required"`
	Confirmed bool   `json:"confirmed"`
}

func (h *Handler) changeStatus(c *gin.Context) {
	vehicleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.vehicles.ChangeStatus(c.Request.Context(), vehicleID, service.ChangeStatusInput{
		Status:    model.VehicleStatus(strings.ToLower(strings.TrimSpace(req.Statut))),
		Confirmed: req.Confirmed,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(*vehicle))
}

type overridesRequest struct {
	LocataireType     string `json:"locataire_type"`
	LocataireNomLibre string `json:"locataire_nom_libre"`
	LoueurType        string `json:"loueur_type"`
	LoueurNomExterne  string `json:"loueur_nom_externe"`
}

func (h *Handler) updateOverrides(c *gin.Context) {
	vehicleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req overridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.vehicles.UpdateOverrides(c.Request.Context(), vehicleID, service.OverridesInput{
		LocataireType:     model.LocataireType(strings.ToLower(strings.TrimSpace(req.LocataireType))),
		LocataireNomLibre: req.LocataireNomLibre,
		LoueurType:        model.LoueurKind(strings.ToLower(strings.TrimSpace(req.LoueurType))),
		LoueurNomExterne:  req.LoueurNomExterne,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(*vehicle))
}

func (h *Handler) getAlerts(c *gin.Context) {
	domains, err := service.ParseDomains(queryList(c, "domains"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	feed, err := h.alerts.Aggregate(c.Request.Context(), domains...)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if len(feed.PartialFailures) > 0 {
		// неполную ленту не кэшируем, следующий запрос повторит сканирование
		c.Header("Cache-Control", "no-store")
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) exportAlerts(c *gin.Context) {
	domains, err := service.ParseDomains(queryList(c, "domains"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.alerts.Export(c.Request.Context(), domains...)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConfirmationRequired):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func bindDate(c *gin.Context) (time.Time, bool) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return time.Time{}, false
	}
	return date, true
}

// queryList принимает ?domains=a,b и ?domains=a&domains=b.
func queryList(c *gin.Context, name string) []string {
	var values []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
