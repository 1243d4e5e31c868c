package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/slotwise/internal/profile"
	"github.com/hrygo/slotwise/internal/version"
	"github.com/hrygo/slotwise/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "slotwise",
		Short: "A natural-language appointment booking engine.",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant HTTP API",
	}

	askCmd = &cobra.Command{
		Use:   "ask <message>",
		Short: "Answer one scheduling message and print the JSON response",
		Args:  cobra.MinimumNArgs(1),
	}
)

func init() {
	// RunE is assigned here rather than in the var block to avoid an
	// initialization cycle (serve/ask refer back to their commands).
	serveCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	}
	askCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return ask(cmd.Context(), strings.Join(args, " "))
	}

	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("business-start-hour", 10)
	viper.SetDefault("business-end-hour", 18)
	viper.SetDefault("business-days", "mon,tue,wed,thu,fri")

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", `calendar backend, can be "sqlite", "postgres" or "google"`)
	flags.String("dsn", "", "database source name")
	flags.String("instance-url", "", "the url of your slotwise instance, used in event links")
	flags.String("timezone", "UTC", "IANA timezone for resolving dates")
	flags.Int("business-start-hour", 10, "first bookable hour")
	flags.Int("business-end-hour", 18, "hour bookings must end by")
	flags.String("business-days", "mon,tue,wed,thu,fri", "comma separated bookable weekdays")
	flags.Bool("slot-tiling", false, "list every duration-aligned slot instead of one per free gap")

	for _, name := range []string{
		"mode", "addr", "port", "data", "driver", "dsn", "instance-url", "timezone",
		"business-start-hour", "business-end-hour", "business-days", "slot-tiling",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	bindSettings(viper.GetViper())

	rootCmd.AddCommand(serveCmd, askCmd)
}

// legacyEnv maps config keys to the env names of the original deployment.
var legacyEnv = map[string]string{
	"ai-llm-api-key":          "GROQ_API_KEY",
	"google-credentials-file": "GOOGLE_CREDENTIALS_PATH",
	"google-credentials-json": "GOOGLE_CREDENTIALS_JSON",
}

// bindSettings wires SLOTWISE_* env names to every key. The AI and calendar
// keys have no flags, so secrets stay out of the process list; they come
// from the config file or the environment.
func bindSettings(v *viper.Viper) {
	v.SetDefault("ai-enabled", true)

	v.SetEnvPrefix("slotwise")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := "SLOTWISE_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			panic(err)
		}
	}
}

func profileFromConfig(v *viper.Viper) *profile.Profile {
	instanceProfile := &profile.Profile{
		Mode:              v.GetString("mode"),
		Addr:              v.GetString("addr"),
		Port:              v.GetInt("port"),
		Data:              v.GetString("data"),
		Driver:            v.GetString("driver"),
		DSN:               v.GetString("dsn"),
		InstanceURL:       v.GetString("instance-url"),
		Timezone:          v.GetString("timezone"),
		BusinessStartHour: v.GetInt("business-start-hour"),
		BusinessEndHour:   v.GetInt("business-end-hour"),
		BusinessDays:      v.GetString("business-days"),
		SlotTiling:        v.GetBool("slot-tiling"),

		CalendarID:            v.GetString("calendar-id"),
		GoogleCredentialsFile: v.GetString("google-credentials-file"),
		GoogleCredentialsJSON: v.GetString("google-credentials-json"),

		AIEnabled:     v.GetBool("ai-enabled"),
		AILLMProvider: v.GetString("ai-llm-provider"),
		AILLMAPIKey:   v.GetString("ai-llm-api-key"),
		AILLMBaseURL:  v.GetString("ai-llm-base-url"),
		AILLMModel:    v.GetString("ai-llm-model"),
	}
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	if instanceProfile.InstanceURL == "" {
		instanceProfile.InstanceURL = fmt.Sprintf("http://localhost:%d", instanceProfile.Port)
	}
	// Provider-dependent defaults.
	instanceProfile.FromEnv()
	return instanceProfile
}

func loadProfile(cmd *cobra.Command) (*profile.Profile, error) {
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	instanceProfile := profileFromConfig(viper.GetViper())
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func serve(ctx context.Context) error {
	instanceProfile, err := loadProfile(serveCmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewServer(ctx, instanceProfile)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-ctx.Done()
		s.Shutdown(context.Background())
		return nil
	})
	return g.Wait()
}

func ask(ctx context.Context, message string) error {
	instanceProfile, err := loadProfile(askCmd)
	if err != nil {
		return err
	}

	s, err := server.NewServer(ctx, instanceProfile)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer s.Close()

	resp := s.Coordinator().Handle(ctx, message)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("slotwise exited with error", "error", err)
		os.Exit(1)
	}
}
