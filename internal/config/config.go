package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuracion del servicio. Todas las
// credenciales llegan como secretos de despliegue, nunca hardcodeadas.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	FirebaseProjectID   string `env:"FIREBASE_PROJECT_ID,required"`
	FirebaseClientEmail string `env:"FIREBASE_CLIENT_EMAIL,required"`
	FirebasePrivateKey  string `env:"FIREBASE_PRIVATE_KEY,required"`

	TwilioAccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `env:"TWILIO_PHONE_NUMBER"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OTPSendWindow time.Duration `env:"OTP_SEND_WINDOW" envDefault:"5m"`
	OTPSendMax    int           `env:"OTP_SEND_MAX" envDefault:"3"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
