package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phone-otp/internal/service"
)

// OTPHandler mantiene dependencias para los endpoints de OTP.
type OTPHandler struct {
	logger *zap.Logger
	otps   *service.OTPService
}

// NewOTPHandler crea una instancia de OTPHandler.
func NewOTPHandler(logger *zap.Logger, otps *service.OTPService) *OTPHandler {
	return &OTPHandler{logger: logger, otps: otps}
}

type otpRequest struct {
	UserID string `json:"userId" binding:"required"`
	Phone  string `json:"phone"`
	OTP    string `json:"otp"`
	Action string `json:"action" binding:"required,oneof=send verify"`
}

// Handle maneja POST /auth/otp y despacha segun action.
func (h *OTPHandler) Handle(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	switch req.Action {
	case "send":
		h.send(c, req)
	case "verify":
		h.verify(c, req)
	}
}

func (h *OTPHandler) send(c *gin.Context, req otpRequest) {
	err := h.otps.SendOTP(c.Request.Context(), req.UserID)
	if err != nil {
		h.replyError(c, req.UserID, "send otp failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "OTP sent via SMS",
		"expiresIn": "5 minutes",
	})
}

func (h *OTPHandler) verify(c *gin.Context, req otpRequest) {
	err := h.otps.VerifyOTP(c.Request.Context(), req.UserID, req.OTP)
	if err != nil {
		h.replyError(c, req.UserID, "verify otp failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OTP verified successfully",
	})
}

// replyError mapea la taxonomia del servicio a respuestas HTTP. Los
// errores user-facing llevan mensaje claro y sin detalle interno; el
// detalle completo queda solo en los logs.
func (h *OTPHandler) replyError(c *gin.Context, userID, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
	case errors.Is(err, service.ErrNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Phone not verified or 2FA not enabled"})
	case errors.Is(err, service.ErrMissingPhone):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No phone number on file"})
	case errors.Is(err, service.ErrMissingCode):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "OTP code is required"})
	case errors.Is(err, service.ErrOTPInvalidOrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired OTP"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many OTP requests"})
	case errors.Is(err, service.ErrSMSSendFailure):
		h.logger.Error(logMsg, zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "sms delivery failed", "details": "could not deliver OTP"})
	default:
		h.logger.Error(logMsg, zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": "could not process OTP request"})
	}
}
