package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobhound/jobhound/internal/contacts"
	"github.com/jobhound/jobhound/internal/followup"
	"github.com/jobhound/jobhound/internal/gate"
	"github.com/jobhound/jobhound/internal/profile"
	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/router"
	"github.com/jobhound/jobhound/internal/source"
)

const (
	app = "jobhound"
)

type Config struct {
	Profile *profile.Profile `mapstructure:"profile"`
	Sources *source.Config   `mapstructure:"sources"`

	Gate      *gate.Rules        `mapstructure:"gate"`
	Routing   *router.Thresholds `mapstructure:"routing"`
	Quotas    *quota.Limits      `mapstructure:"quotas"`
	FollowUp  *followup.Config   `mapstructure:"follow-up"`
	Contacts  *contacts.Config   `mapstructure:"contacts"`
	State     *StateConfig       `mapstructure:"state"`
	AI        *AIConfig          `mapstructure:"ai"`
	Outreach  *OutreachConfig    `mapstructure:"outreach"`
	Interval  int                `mapstructure:"interval-hours"`
}

type StateConfig struct {
	// Backend selects seen/quota persistence: "file" or "redis".
	// Review, follow-up and contact records always live in the state dir.
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	RedisURL    string `mapstructure:"redis-url"`
	SeenTTLDays int    `mapstructure:"seen-ttl-days"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OutreachConfig struct {
	// Mode "dry-run" writes applications and emails to the state dir;
	// "ses" delivers email through Amazon SES.
	Mode    string `mapstructure:"mode"`
	Region  string `mapstructure:"region"`
	From    string `mapstructure:"from"`
	Mailbox string `mapstructure:"mailbox"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobhound is a personal engine that discovers early-stage job postings and works them end to end",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("state.redis-url", "JOBHOUND_REDIS_URL"); err != nil {
		log.Fatalf("binding JOBHOUND_REDIS_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobhound.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only run and review need the config file.
	if runCmd.CalledAs() == "" && reviewCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, nil
}
