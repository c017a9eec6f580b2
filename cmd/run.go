package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/ai/gemini"
	"github.com/jobhound/jobhound/internal/contacts"
	"github.com/jobhound/jobhound/internal/cycle"
	"github.com/jobhound/jobhound/internal/followup"
	"github.com/jobhound/jobhound/internal/gate"
	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/outreach"
	"github.com/jobhound/jobhound/internal/outreach/ses"
	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/router"
	"github.com/jobhound/jobhound/internal/scoring"
	"github.com/jobhound/jobhound/internal/secrets"
	"github.com/jobhound/jobhound/internal/source"
	"github.com/jobhound/jobhound/internal/store"
	"github.com/jobhound/jobhound/internal/store/filestore"
	"github.com/jobhound/jobhound/internal/store/redisstore"
)

const (
	defaultStateDir    = ".jobhound"
	defaultSeenTTLDays = 60
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the discovery pipeline once, or on a schedule with --daemon",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("daemon", false, "keep running and fire a cycle on the configured interval")
	runCmd.Flags().Bool("dry-run", false, "write applications and emails to the state dir instead of sending")
}

// run builds the dependency graph from the config and executes the pipeline.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobhound", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	// A broken profile is the one startup error nothing can soften.
	if err := config.Profile.Validate(); err != nil {
		logger.Fatal("validating profile", zap.Error(err))
	}

	deps, history, notifier, cleanup, err := buildDeps(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("building pipeline", zap.Error(err))
	}
	defer cleanup()

	orchestrator := cycle.NewOrchestrator(*deps)

	daemon, _ := cmd.Flags().GetBool("daemon")
	if !daemon {
		stats := orchestrator.RunCycle(ctx)
		fmt.Println(stats.Summary())
		return
	}

	scheduler := cycle.NewScheduler(orchestrator, history, notifier, config.Interval, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("scheduler failed", zap.Error(err))
	}
}

func buildDeps(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*cycle.Deps, *cycle.History, outreach.Notifier, func(), error) {
	cleanup := func() {}

	stateDir := defaultStateDir
	seenTTLDays := defaultSeenTTLDays
	backend := "file"
	if config.State != nil {
		if config.State.Dir != "" {
			stateDir = config.State.Dir
		}
		if config.State.SeenTTLDays > 0 {
			seenTTLDays = config.State.SeenTTLDays
		}
		if config.State.Backend != "" {
			backend = config.State.Backend
		}
	}
	seenTTL := time.Duration(seenTTLDays) * 24 * time.Hour

	files, err := filestore.New(stateDir, seenTTL, logger)
	if err != nil {
		return nil, nil, nil, cleanup, fmt.Errorf("opening state dir %s: %w", stateDir, err)
	}

	var seen store.SeenStore = files
	var quotaStore quota.Store = files
	switch backend {
	case "file":
	case "redis":
		redisURL := ""
		if config.State != nil {
			redisURL = config.State.RedisURL
		}
		rs, err := redisstore.New(ctx, redisURL, seenTTL)
		if err != nil {
			return nil, nil, nil, cleanup, fmt.Errorf("connecting to redis: %w", err)
		}
		cleanup = func() { rs.Close() }
		seen = rs
		quotaStore = rs
	default:
		return nil, nil, nil, cleanup, fmt.Errorf("unknown state backend %q", backend)
	}

	limits := quota.DefaultLimits()
	if config.Quotas != nil {
		limits = *config.Quotas
	}
	tracker := quota.NewTracker(limits, quotaStore, logger)
	if err := tracker.Load(ctx); err != nil {
		return nil, nil, nil, cleanup, fmt.Errorf("loading quota state: %w", err)
	}

	rules := gate.DefaultRules()
	if config.Gate != nil {
		rules = *config.Gate
	}

	thresholds := router.DefaultThresholds()
	if config.Routing != nil {
		thresholds = *config.Routing
	}

	var analyzer ai.Analyzer
	var generator ai.Generator
	if config.AI != nil && config.AI.Enabled {
		geminiAnalyzer, err := buildGemini(ctx, config.AI.Gemini, logger)
		if err != nil {
			return nil, nil, nil, cleanup, err
		}
		analyzer = geminiAnalyzer
		generator = geminiAnalyzer
	}

	engine := scoring.NewEngine(scoring.DefaultConfig(), analyzer, logger)

	deliverer, submitter, mailbox, err := buildOutreach(ctx, cmd, config, stateDir, logger)
	if err != nil {
		return nil, nil, nil, cleanup, err
	}
	notifier := outreach.NewLogNotifier(logger)

	followUpCfg := followup.DefaultConfig()
	if config.FollowUp != nil {
		followUpCfg = *config.FollowUp
	}
	sender := cycle.NewFollowUpSender(generator, deliverer, config.Profile, logger)
	followUps := followup.NewScheduler(followUpCfg, files, sender, logger)

	contactCfg := contacts.DefaultConfig()
	if config.Contacts != nil {
		contactCfg = *config.Contacts
	}
	rotator := contacts.NewRotator(contactCfg, files, logger)

	var companies map[string]source.CompanyInfo
	var fetchTimeout time.Duration
	if config.Sources != nil {
		companies = config.Sources.Companies
		fetchTimeout = config.Sources.FetchTimeout
	}
	sources := source.Build(config.Sources)
	if len(sources) == 0 {
		return nil, nil, nil, cleanup, fmt.Errorf("no posting sources configured")
	}

	history := cycle.NewHistory(stateDir)

	return &cycle.Deps{
		Sources:      sources,
		Companies:    companies,
		FetchTimeout: fetchTimeout,
		Profile:      config.Profile,
		Gate:         rules,
		Engine:       engine,
		Router:       router.New(thresholds, tracker, logger),
		Quota:        tracker,
		Seen:         seen,
		Reviews:      files,
		FollowUps:    followUps,
		Contacts:     rotator,
		Generator:    generator,
		Deliverer:    deliverer,
		Submitter:    submitter,
		Notifier:     notifier,
		History:      history,
		Logger:       logger,
		Mailbox:      mailbox,
	}, history, notifier, cleanup, nil
}

func buildGemini(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (*gemini.Analyzer, error) {
	if cfg == nil {
		cfg = &GeminiConfig{}
	}

	keyFile := cfg.APIKeyFile
	if keyFile == "" {
		keyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: strings.TrimSpace(viper.GetString("ai.gemini.api-key")),
		File:  keyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("loading gemini api key: %w", err)
	}

	client, err := gemini.NewClient(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return gemini.NewAnalyzer(client, logger, cfg.MaxLogLength), nil
}

func buildOutreach(ctx context.Context, cmd *cobra.Command, config *Config, stateDir string, logger *zap.Logger) (outreach.Deliverer, outreach.Submitter, string, error) {
	mode := "dry-run"
	mailbox := ""
	if config.Outreach != nil {
		if config.Outreach.Mode != "" {
			mode = config.Outreach.Mode
		}
		mailbox = config.Outreach.Mailbox
	}
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		mode = "dry-run"
	}

	// Applications are always written to disk for inspection; no job board
	// submission API is wired yet.
	submitter := outreach.NewDryRunSubmitter(stateDir+"/applications", logger)

	switch mode {
	case "dry-run":
		return outreach.NewDryRunDeliverer(logger), submitter, mailbox, nil
	case "ses":
		if config.Outreach == nil || config.Outreach.From == "" {
			return nil, nil, "", fmt.Errorf("outreach.from is required for ses mode")
		}
		deliverer, err := ses.New(ctx, config.Outreach.Region, config.Outreach.From, logger)
		if err != nil {
			return nil, nil, "", fmt.Errorf("creating ses deliverer: %w", err)
		}
		return deliverer, submitter, mailbox, nil
	default:
		return nil, nil, "", fmt.Errorf("unknown outreach mode %q", mode)
	}
}
