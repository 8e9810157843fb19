package relay

import (
	"errors"
	"net/http"

	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/Yulian302/lfusys-services-crmrelay/responses"
	"github.com/Yulian302/lfusys-services-crmrelay/services"
	"github.com/gin-gonic/gin"
)

type RelayHandler struct {
	relayService services.RelayService
	maxBodyBytes int64

	logger logging.Logger
}

func NewRelayHandler(relayService services.RelayService, maxBodyBytes int64, l logging.Logger) *RelayHandler {
	return &RelayHandler{
		relayService: relayService,
		maxBodyBytes: maxBodyBytes,
		logger:       l,
	}
}

// Upload godoc
//
//	@Summary		Relay files to a Bitrix24 deal
//	@Description	Stores each file in CRM disk storage and attaches the results to the deal. Files the storage rejects are written to the deal's file field instead.
//	@Tags			relay
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UploadRequest				true	"Files, deal id and webhook prefix"
//	@Success		200		{object}	services.RelayResult		"Per-file outcomes"
//	@Failure		400		{object}	responses.HTTPError			"Malformed request"
//	@Failure		405		{object}	responses.HTTPError			"Method not allowed"
//	@Failure		413		{object}	responses.HTTPError			"Body too large"
//	@Failure		500		{object}	responses.InternalError		"Undecodable body"
//	@Router			/upload-to-bitrix [post]
func (h *RelayHandler) Upload(c *gin.Context) {
	l := logging.FromContext(c.Request.Context(), h.logger)

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var body UploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn("request body too large", "limit", tooLarge.Limit)
			responses.PayloadTooLargeResponse(c, "Request body too large")
			return
		}
		l.Error("failed to decode request body", "error", err)
		responses.InternalServerErrorResponse(c, err.Error())
		return
	}

	req, err := body.toRelayRequest()
	if err != nil {
		var invalid validationError
		if errors.As(err, &invalid) {
			responses.BadRequestResponse(c, invalid.Error())
			return
		}
		l.Error("failed to decode files", "error", err)
		responses.InternalServerErrorResponse(c, err.Error())
		return
	}

	result := h.relayService.Relay(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

// Preflight answers OPTIONS with an empty 200.
func (h *RelayHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *RelayHandler) MethodNotAllowed(c *gin.Context) {
	responses.MethodNotAllowedResponse(c)
}
