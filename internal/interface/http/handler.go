package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/outdoor-planner/internal/domain/planner"
	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
	"github.com/yanqian/outdoor-planner/internal/infra/config"
	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
)

const indexPage = `<!doctype html><html><body style="font-family:system-ui,Arial;padding:24px;">
<h1>Outdoor Activity Planner API</h1>
<ul>
<li><code>GET /health</code> liveness check</li>
<li><code>GET /state?userId=</code> current saved location and preferences</li>
<li><code>POST /state</code> save <code>{userId, city, lat, lon, prefs}</code></li>
<li><code>POST /plan</code> plan with <code>{userId, city, lat, lon, days, question, indoorOnly, prefs}</code></li>
</ul>
</body></html>`

// Handler wires the HTTP transport to domain services.
type Handler struct {
	plannerSvc    planner.Service
	stateSvc      userstate.Service
	defaultUserID string
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, plannerSvc planner.Service, stateSvc userstate.Service, logger *slog.Logger) *Handler {
	defaultUserID := strings.TrimSpace(cfg.Planner.DefaultUserID)
	if defaultUserID == "" {
		defaultUserID = "demo-user-1"
	}
	return &Handler{
		plannerSvc:    plannerSvc,
		stateSvc:      stateSvc,
		defaultUserID: defaultUserID,
		logger:        logger.With("component", "http.handler"),
	}
}

// Health is the liveness check.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Index serves a small page listing the endpoints.
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

// NotFound renders the catch-all 404.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

type stateRequest struct {
	UserID string          `json:"userId"`
	City   *string         `json:"city"`
	Lat    *float64        `json:"lat"`
	Lon    *float64        `json:"lon"`
	Prefs  json.RawMessage `json:"prefs"`
}

// UnmarshalJSON accepts coordinates as JSON numbers or numeric strings.
func (r *stateRequest) UnmarshalJSON(data []byte) error {
	type plain stateRequest
	var wire struct {
		plain
		Lat json.RawMessage `json:"lat"`
		Lon json.RawMessage `json:"lon"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = stateRequest(wire.plain)
	r.Lat = userstate.ParseCoordinate(wire.Lat)
	r.Lon = userstate.ParseCoordinate(wire.Lon)
	return nil
}

// GetState returns the stored state for ?userId=.
func (h *Handler) GetState(c *gin.Context) {
	state, err := h.stateSvc.Get(c.Request.Context(), h.userID(c.Query("userId")))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, state)
}

// PostState merges the submitted fields into the user's state. Unparseable bodies merge nothing.
func (h *Handler) PostState(c *gin.Context) {
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("ignoring unparseable state body", "error", err)
		req = stateRequest{}
	}
	if err := userstate.ValidateCoordinates(req.Lat, req.Lon); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	state, err := h.stateSvc.Merge(c.Request.Context(), h.userID(req.UserID), userstate.Patch{
		City:  req.City,
		Lat:   req.Lat,
		Lon:   req.Lon,
		Prefs: req.Prefs,
	})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, state)
}

// Plan runs the planning pipeline.
func (h *Handler) Plan(c *gin.Context) {
	var req planner.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, fromDomainError(apperrors.Validation("Invalid JSON body: "+errMessage(err))))
		return
	}

	resp, err := h.plannerSvc.Plan(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) userID(raw string) string {
	if id := strings.TrimSpace(raw); id != "" {
		return id
	}
	return h.defaultUserID
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
