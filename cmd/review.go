package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/router"
	"github.com/jobhound/jobhound/internal/store/filestore"
)

const (
	PromptMarkApplied = "Mark applied"
	PromptDiscard     = "Discard"
	PromptKeep        = "Keep in queue"
	PromptBack        = "back"
)

var errExit = errors.New("exit requested")

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Triage the postings parked for human review",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func review(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	stateDir := defaultStateDir
	seenTTLDays := defaultSeenTTLDays
	if config != nil && config.State != nil {
		if config.State.Dir != "" {
			stateDir = config.State.Dir
		}
		if config.State.SeenTTLDays > 0 {
			seenTTLDays = config.State.SeenTTLDays
		}
	}

	files, err := filestore.New(stateDir, time.Duration(seenTTLDays)*24*time.Hour, logger)
	if err != nil {
		logger.Fatal("opening state dir", zap.Error(err))
	}

	for {
		queue, err := files.ReviewQueue(ctx)
		if err != nil {
			logger.Fatal("loading review queue", zap.Error(err))
		}

		if len(queue) == 0 {
			logger.Info("exiting", zap.String("reason", "review queue is empty"))
			return
		}

		if err := triage(ctx, files, queue, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func triage(ctx context.Context, files *filestore.Store, queue []*router.ReviewItem, logger *zap.Logger) error {
	items := make([]string, 0, len(queue)+1)
	for _, item := range queue {
		label := fmt.Sprintf("%.0f %s / %s", item.Score, item.Title, item.Company)
		if item.Demoted {
			label += " (demoted: " + item.Note + ")"
		}
		items = append(items, label)
	}

	queuePrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: append(items, PromptBack),
	}

	index, selected, err := queuePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return errExit
	}

	item := queue[index]
	logger.Info("reviewing posting",
		zap.String("id", item.ID),
		zap.Float64("score", item.Score),
		zap.Strings("reasons", item.Reasons),
		zap.String("url", item.URL),
	)

	actionPrompt := promptui.Select{
		Label: "Action",
		Items: []string{PromptMarkApplied, PromptDiscard, PromptKeep, PromptBack},
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptMarkApplied:
		if err := files.MarkApplied(ctx, item.ID); err != nil {
			return fmt.Errorf("marking applied: %w", err)
		}
		if err := files.RemoveReview(ctx, item.ID); err != nil {
			return fmt.Errorf("removing from queue: %w", err)
		}
		logger.Info("marked applied", zap.String("id", item.ID))
	case PromptDiscard:
		if err := files.RemoveReview(ctx, item.ID); err != nil {
			return fmt.Errorf("removing from queue: %w", err)
		}
		logger.Info("discarded", zap.String("id", item.ID))
	case PromptKeep, PromptBack:
	}

	return nil
}
