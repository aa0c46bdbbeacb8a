package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Contador por identidad con vencimiento atomico: el primer INCR de la
// ventana fija el EXPIRE, los siguientes solo cuentan.
const redisSendCountScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

const redisSendKeyPrefix = "otp:send:"

type redisOTPRateLimiter struct {
	client redisEvaler
	logger *zap.Logger
	window time.Duration
	max    int
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisOTPRateLimiter crea el limite de envios distribuido sobre
// Redis, para despliegues con mas de una replica del servicio. window y
// max llegan de la configuracion (OTP_SEND_WINDOW / OTP_SEND_MAX).
func NewRedisOTPRateLimiter(client *redis.Client, logger *zap.Logger, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = OTPTTL
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		client: client,
		logger: logger,
		window: window,
		max:    max,
	}
}

func (l *redisOTPRateLimiter) Allow(userID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisSendCountScript, []string{redisSendKeyPrefix + userID}, seconds).Int()
	if err != nil {
		// Redis caido no debe bloquear el segundo factor: fail-open,
		// pero dejando rastro para detectar la degradacion.
		if l.logger != nil {
			l.logger.Warn("otp send limiter degraded", zap.Error(err))
		}
		return true
	}
	return count <= l.max
}
