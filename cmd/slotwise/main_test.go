package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
driver: google
calendar-id: team@example.com
google-credentials-file: /etc/slotwise/creds.json
ai-llm-provider: OpenAI
ai-llm-api-key: file-key
`

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SLOTWISE_DRIVER",
		"SLOTWISE_AI_ENABLED",
		"SLOTWISE_AI_LLM_PROVIDER",
		"SLOTWISE_AI_LLM_API_KEY",
		"SLOTWISE_AI_LLM_BASE_URL",
		"SLOTWISE_AI_LLM_MODEL",
		"SLOTWISE_CALENDAR_ID",
		"SLOTWISE_GOOGLE_CREDENTIALS_FILE",
		"SLOTWISE_GOOGLE_CREDENTIALS_JSON",
		"GROQ_API_KEY",
		"GOOGLE_CREDENTIALS_PATH",
		"GOOGLE_CREDENTIALS_JSON",
	} {
		// Viper and the profile both treat an empty value as unset.
		t.Setenv(name, "")
	}
}

func newTestViper(t *testing.T, config string) *viper.Viper {
	t.Helper()
	v := viper.New()
	bindSettings(v)
	if config != "" {
		file := filepath.Join(t.TempDir(), "slotwise.yaml")
		require.NoError(t, os.WriteFile(file, []byte(config), 0o600))
		v.SetConfigFile(file)
		require.NoError(t, v.ReadInConfig())
	}
	return v
}

func TestProfileFromConfig_File(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("GROQ_API_KEY", "legacy-key")

	p := profileFromConfig(newTestViper(t, testConfig))

	assert.Equal(t, "google", p.Driver)
	assert.Equal(t, "team@example.com", p.CalendarID)
	assert.Equal(t, "/etc/slotwise/creds.json", p.GoogleCredentialsFile)
	assert.Equal(t, "openai", p.AILLMProvider)
	assert.Equal(t, "file-key", p.AILLMAPIKey)
	assert.Equal(t, "gpt-4o-mini", p.AILLMModel)
	assert.True(t, p.AIEnabled)
	assert.True(t, p.IsAIEnabled())
}

func TestProfileFromConfig_EnvOverridesFile(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("SLOTWISE_AI_LLM_API_KEY", "env-key")
	t.Setenv("SLOTWISE_CALENDAR_ID", "env-calendar")
	t.Setenv("SLOTWISE_AI_ENABLED", "false")

	p := profileFromConfig(newTestViper(t, testConfig))

	assert.Equal(t, "env-key", p.AILLMAPIKey)
	assert.Equal(t, "env-calendar", p.CalendarID)
	assert.False(t, p.AIEnabled)
}

func TestProfileFromConfig_LegacyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		field    func(*viper.Viper) string
		expected string
	}{
		{
			name:     "groq api key",
			env:      map[string]string{"GROQ_API_KEY": "legacy-key"},
			field:    func(v *viper.Viper) string { return profileFromConfig(v).AILLMAPIKey },
			expected: "legacy-key",
		},
		{
			name:     "new name wins over legacy",
			env:      map[string]string{"GROQ_API_KEY": "legacy-key", "SLOTWISE_AI_LLM_API_KEY": "new-key"},
			field:    func(v *viper.Viper) string { return profileFromConfig(v).AILLMAPIKey },
			expected: "new-key",
		},
		{
			name:     "google credentials path",
			env:      map[string]string{"GOOGLE_CREDENTIALS_PATH": "/creds.json"},
			field:    func(v *viper.Viper) string { return profileFromConfig(v).GoogleCredentialsFile },
			expected: "/creds.json",
		},
		{
			name:     "google credentials json",
			env:      map[string]string{"GOOGLE_CREDENTIALS_JSON": "{}"},
			field:    func(v *viper.Viper) string { return profileFromConfig(v).GoogleCredentialsJSON },
			expected: "{}",
		},
		{
			name:     "defaults without config",
			field:    func(v *viper.Viper) string { return profileFromConfig(v).CalendarID },
			expected: "primary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSettingsEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			assert.Equal(t, tt.expected, tt.field(newTestViper(t, "")))
		})
	}
}
