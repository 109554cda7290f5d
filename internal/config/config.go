package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	MembersTable  string
	PhoneLogTable string

	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppAPIBaseURL    string

	ReminderDaysAhead    int
	ReminderCooldownDays int
	ReminderOnlyExpired  bool
	ReminderCron         string
	DryRun               bool

	PhoneFields        []string
	PhoneApplyEnabled  bool
	DefaultCountryCode string

	// SendGrid run-summary notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotifyEmail       string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		AWSRegion:           getEnv("AWS_REGION", "eu-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		MembersTable:  getEnv("MEMBERS_TABLE", "members"),
		PhoneLogTable: getEnv("PHONE_LOG_TABLE", "phone_normalization_log"),

		WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),

		ReminderDaysAhead:    getEnvAsInt("REMINDER_DAYS_AHEAD", 7),
		ReminderCooldownDays: getEnvAsInt("REMINDER_COOLDOWN_DAYS", 7),
		ReminderOnlyExpired:  getEnvAsBool("REMINDER_ONLY_EXPIRED", false),
		ReminderCron:         getEnv("REMINDER_CRON", "0 9 * * *"),
		DryRun:               getEnvAsBool("DRY_RUN", false),

		PhoneFields:        getEnvAsList("PHONE_FIELDS", []string{"phone", "whatsapp", "telefono"}),
		PhoneApplyEnabled:  getEnvAsBool("PHONE_APPLY_ENABLED", false),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "39"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ClubDesk"),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
