package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echoface/admediation/internal/host"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/pkg/logger"
)

// AdsHandler exposes the host's load/show/destroy flow over HTTP.
type AdsHandler struct {
	host *host.Host
	log  logger.Logger
}

// ErrorResponse is the body of every failed request. Host failures use
// codes from 1000 up, adapter load failures the host error codes 0 to 3.
type ErrorResponse struct {
	ErrorCode int64  `json:"error_code"`
	ErrorName string `json:"error_name,omitempty"`
	Message   string `json:"message"`
	Domain    string `json:"domain,omitempty"`
}

// LoadResponse is returned by a successful load.
type LoadResponse struct {
	Handle string `json:"handle"`
	Unit   string `json:"unit"`
	Format string `json:"format"`
	Status string `json:"status"`
}

// InteractionRequest is the body of POST /v1/ads/:handle/interactions.
type InteractionRequest struct {
	Interaction string `json:"interaction" binding:"required"`
}

func NewAdsHandler(h *host.Host, l logger.Logger) *AdsHandler {
	return &AdsHandler{host: h, log: logger.Component(l, "ads_handler")}
}

// Register mounts the ad routes on r.
func (ah *AdsHandler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/adapters", ah.Adapters)
	v1.GET("/units", ah.Units)
	v1.POST("/units/:unit/load", ah.Load)
	v1.POST("/ads/:handle/show", ah.Show)
	v1.GET("/ads/:handle/view", ah.View)
	v1.POST("/ads/:handle/interactions", ah.Interact)
	v1.GET("/ads/:handle/events", ah.Events)
	v1.DELETE("/ads/:handle", ah.Destroy)
}

// Load handles POST /v1/units/:unit/load
func (ah *AdsHandler) Load(c *gin.Context) {
	s, err := ah.host.Load(c.Request.Context(), c.Param("unit"))
	if err != nil {
		ah.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, LoadResponse{
		Handle: s.Handle,
		Unit:   s.Unit.ID,
		Format: string(s.Format),
		Status: string(s.State()),
	})
}

// Show handles POST /v1/ads/:handle/show
func (ah *AdsHandler) Show(c *gin.Context) {
	handle := c.Param("handle")
	if err := ah.host.Show(handle); err != nil {
		ah.fail(c, err)
		return
	}
	ah.respondEvents(c, handle)
}

// View handles GET /v1/ads/:handle/view
func (ah *AdsHandler) View(c *gin.Context) {
	content, err := ah.host.BannerView(c.Param("handle"))
	if err != nil {
		ah.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// Interact handles POST /v1/ads/:handle/interactions
func (ah *AdsHandler) Interact(c *gin.Context) {
	var req InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ah.fail(c, host.ErrInvalidRequest.WithDetail(err.Error()))
		return
	}
	i, ok := platform.ParseInteraction(req.Interaction)
	if !ok {
		ah.fail(c, host.ErrInvalidRequest.WithDetail("unknown interaction "+req.Interaction))
		return
	}

	handle := c.Param("handle")
	delivered, err := ah.host.Interact(handle, i)
	if err != nil {
		ah.fail(c, err)
		return
	}
	events, _ := ah.host.Events(handle)
	c.JSON(http.StatusOK, gin.H{"delivered": delivered, "events": events})
}

// Events handles GET /v1/ads/:handle/events
func (ah *AdsHandler) Events(c *gin.Context) {
	ah.respondEvents(c, c.Param("handle"))
}

// Destroy handles DELETE /v1/ads/:handle
func (ah *AdsHandler) Destroy(c *gin.Context) {
	if err := ah.host.Destroy(c.Param("handle")); err != nil {
		ah.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Adapters handles GET /v1/adapters
func (ah *AdsHandler) Adapters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"adapters": ah.host.Adapters()})
}

// Units handles GET /v1/units
func (ah *AdsHandler) Units(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"units": ah.host.Units()})
}

func (ah *AdsHandler) respondEvents(c *gin.Context, handle string) {
	events, err := ah.host.Events(handle)
	if err != nil {
		ah.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"handle": handle, "events": events})
}

func (ah *AdsHandler) fail(c *gin.Context, err error) {
	if adErr, ok := host.AsAdError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			ErrorCode: int64(adErr.Code),
			ErrorName: adErr.Code.String(),
			Message:   adErr.Message,
			Domain:    adErr.Domain,
		})
		return
	}

	var hostErr *host.HostError
	if errors.As(err, &hostErr) {
		c.JSON(statusFor(hostErr), ErrorResponse{ErrorCode: hostErr.Code, Message: hostErr.Message})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{ErrorCode: host.ErrLoadTimeout.Code, Message: err.Error()})
		return
	}

	ah.log.Error("unexpected host error", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
}

func statusFor(err *host.HostError) int {
	switch {
	case errors.Is(err, host.ErrUnknownUnit), errors.Is(err, host.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, host.ErrAdapterUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, host.ErrLoadTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, host.ErrInvalidUnit), errors.Is(err, host.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}
