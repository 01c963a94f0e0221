package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

// Enabled reports whether enough credentials are present to send messages.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && (t.PhoneNumber != "" || t.WhatsAppNumber != "")
}

type Config struct {
	Port           string
	DatabaseURL    string
	DBMaxOpenConns int
	JWTSecret      string
	JWTExpiry      time.Duration
	OwnerPin       string
	LogLevel       string
	CORSOrigins    []string
	ReminderCron   string
	TxMaxAttempts  int
	Twilio         TwilioConfig
}

// Load reads configuration from the environment (a .env file is expected to
// have been loaded already) with defaults for everything but secrets.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("OWNER_PIN", "9094")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REMINDER_CRON", "0 9 * * *")
	v.SetDefault("TX_MAX_ATTEMPTS", 5)

	return Config{
		Port:           v.GetString("PORT"),
		DatabaseURL:    v.GetString("DB_URL"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpiry:      time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		OwnerPin:       v.GetString("OWNER_PIN"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		ReminderCron:   v.GetString("REMINDER_CRON"),
		TxMaxAttempts:  v.GetInt("TX_MAX_ATTEMPTS"),
		Twilio: TwilioConfig{
			AccountSID:     v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:      v.GetString("TWILIO_AUTH_TOKEN"),
			PhoneNumber:    v.GetString("TWILIO_PHONE_NUMBER"),
			WhatsAppNumber: v.GetString("TWILIO_WHATSAPP_NUMBER"),
		},
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
