package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the booking server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where slotwise stores its own calendar
	DSN string
	// Driver is the calendar backend (sqlite, postgres or google)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the public url used to build event links for SQL backends.
	InstanceURL string

	// Timezone is the IANA zone every date expression is resolved in.
	Timezone string
	// Calendar policy. Both the policy validator and the availability resolver read these.
	BusinessStartHour int    // SLOTWISE_BUSINESS_START_HOUR (default: 10)
	BusinessEndHour   int    // SLOTWISE_BUSINESS_END_HOUR (default: 18)
	BusinessDays      string // SLOTWISE_BUSINESS_DAYS (default: mon,tue,wed,thu,fri)
	// SlotTiling emits every duration-aligned slot in a gap instead of one slot per gap.
	SlotTiling bool

	// Google Calendar backend
	CalendarID            string // SLOTWISE_CALENDAR_ID (default: primary)
	GoogleCredentialsFile string // SLOTWISE_GOOGLE_CREDENTIALS_FILE (legacy: GOOGLE_CREDENTIALS_PATH)
	GoogleCredentialsJSON string // SLOTWISE_GOOGLE_CREDENTIALS_JSON (legacy: GOOGLE_CREDENTIALS_JSON)

	// AI Configuration
	AIEnabled     bool   // SLOTWISE_AI_ENABLED
	AILLMProvider string // SLOTWISE_AI_LLM_PROVIDER (default: groq)
	AILLMAPIKey   string // SLOTWISE_AI_LLM_API_KEY (legacy: GROQ_API_KEY)
	AILLMBaseURL  string // SLOTWISE_AI_LLM_BASE_URL (default depends on provider)
	AILLMModel    string // SLOTWISE_AI_LLM_MODEL (default depends on provider)
}

// Default values for the LLM providers.
var (
	defaultLLMBaseURLs = map[string]string{
		"groq":     "https://api.groq.com/openai/v1",
		"openai":   "https://api.openai.com/v1",
		"deepseek": "https://api.deepseek.com",
		"gemini":   "",
	}
	defaultLLMModels = map[string]string{
		"groq":     "llama3-8b-8192",
		"openai":   "gpt-4o-mini",
		"deepseek": "deepseek-chat",
		"gemini":   "gemini-1.5-flash",
	}
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and the provider has credentials.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AILLMProvider != "" && p.AILLMAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills the calendar and AI settings that are still empty from
// environment variables, so values from a config file are kept.
// Supports both SLOTWISE_* names and the legacy names of the original deployment.
// AIEnabled only changes when SLOTWISE_AI_ENABLED is set.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}

	if enabled := os.Getenv("SLOTWISE_AI_ENABLED"); enabled != "" {
		p.AIEnabled = enabled == "true"
	}
	fill(&p.AILLMProvider, getEnvOrDefault("SLOTWISE_AI_LLM_PROVIDER", "groq"))
	p.AILLMProvider = strings.ToLower(p.AILLMProvider)
	fill(&p.AILLMAPIKey, getEnvWithFallback("SLOTWISE_AI_LLM_API_KEY", "GROQ_API_KEY"))
	fill(&p.AILLMBaseURL, getEnvOrDefault("SLOTWISE_AI_LLM_BASE_URL", defaultLLMBaseURLs[p.AILLMProvider]))
	fill(&p.AILLMModel, getEnvOrDefault("SLOTWISE_AI_LLM_MODEL", defaultLLMModels[p.AILLMProvider]))

	fill(&p.CalendarID, getEnvOrDefault("SLOTWISE_CALENDAR_ID", "primary"))
	fill(&p.GoogleCredentialsFile, getEnvWithFallback("SLOTWISE_GOOGLE_CREDENTIALS_FILE", "GOOGLE_CREDENTIALS_PATH"))
	fill(&p.GoogleCredentialsJSON, getEnvWithFallback("SLOTWISE_GOOGLE_CREDENTIALS_JSON", "GOOGLE_CREDENTIALS_JSON"))
}

// Location loads the configured timezone, defaulting to UTC.
func (p *Profile) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}
	return loc, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Weekdays parses BusinessDays ("mon,tue,...") into weekdays.
func (p *Profile) Weekdays() ([]time.Weekday, error) {
	if strings.TrimSpace(p.BusinessDays) == "" {
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, nil
	}

	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, name := range strings.Split(p.BusinessDays, ",") {
		key := strings.ToLower(strings.TrimSpace(name))
		if len(key) > 3 {
			key = key[:3]
		}
		day, ok := weekdayNames[key]
		if !ok {
			return nil, errors.Errorf("unknown business day %q", name)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.BusinessStartHour == 0 && p.BusinessEndHour == 0 {
		p.BusinessStartHour, p.BusinessEndHour = 10, 18
	}
	if p.BusinessStartHour < 0 || p.BusinessEndHour > 24 || p.BusinessStartHour >= p.BusinessEndHour {
		return errors.Errorf("invalid business hours %d-%d", p.BusinessStartHour, p.BusinessEndHour)
	}
	if _, err := p.Weekdays(); err != nil {
		return err
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	if p.CalendarID == "" {
		p.CalendarID = "primary"
	}

	switch p.Driver {
	case "google":
		if p.GoogleCredentialsFile == "" && p.GoogleCredentialsJSON == "" {
			return errors.New("google calendar backend requires credentials (SLOTWISE_GOOGLE_CREDENTIALS_FILE or SLOTWISE_GOOGLE_CREDENTIALS_JSON)")
		}
		return nil
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres backend requires a DSN")
		}
		return nil
	case "sqlite":
	default:
		return errors.Errorf("unknown calendar driver %q", p.Driver)
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.DSN == "" {
		dbFile := fmt.Sprintf("slotwise_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}

// ListenAddr returns the host:port the server listens on.
func (p *Profile) ListenAddr() string {
	return p.Addr + ":" + strconv.Itoa(p.Port)
}
