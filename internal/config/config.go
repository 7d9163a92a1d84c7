package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"studytimer/backend/internal/model"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	// Timezone is the single IANA zone all phase computation runs in.
	Timezone string

	ModeAWorkMinutes  int
	ModeABreakMinutes int
	ModeBWorkMinutes  int
	ModeBBreakMinutes int

	// CreditBreaks controls whether break segments are written into the
	// ledger's break buckets. Work seconds remain the ranking metric either
	// way.
	CreditBreaks bool

	DiscordToken     string
	DiscordChannelID string
}

func Load() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/studytimer.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),

		Timezone: getEnv("TIMEZONE", "Europe/Zurich"),

		ModeAWorkMinutes:  getEnvInt("MODE_A_WORK_MINUTES", model.DefaultModeAWorkMinutes),
		ModeABreakMinutes: getEnvInt("MODE_A_BREAK_MINUTES", model.DefaultModeABreakMinutes),
		ModeBWorkMinutes:  getEnvInt("MODE_B_WORK_MINUTES", model.DefaultModeBWorkMinutes),
		ModeBBreakMinutes: getEnvInt("MODE_B_BREAK_MINUTES", model.DefaultModeBBreakMinutes),

		CreditBreaks: getEnvBool("CREDIT_BREAKS", false),

		DiscordToken:     getEnv("DISCORD_TOKEN", ""),
		DiscordChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
	}
}

// Modes materializes the two configured cadences.
func (c Config) Modes() []model.Mode {
	return []model.Mode{
		model.NewModeA(c.ModeAWorkMinutes, c.ModeABreakMinutes),
		model.NewModeB(c.ModeBWorkMinutes, c.ModeBBreakMinutes),
	}
}

// Location resolves the configured IANA timezone, falling back to UTC when
// the name cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
