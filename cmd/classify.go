package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mindroute/pkg/conversation"
	"mindroute/pkg/pipeline"
	"mindroute/pkg/provider"
	"mindroute/pkg/session"

	"github.com/spf13/cobra"
)

type router interface {
	Route(ctx context.Context, state *conversation.State) (pipeline.Turn, error)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Classify a message and show which persona would answer it",
	Long:  "Runs the normalizer, classifier and router on one message without calling a responder.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime("cmd.classify")
		if err != nil {
			return err
		}

		client, err := provider.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize provider: %w", err)
		}

		p, err := session.BuildPipeline(cfg, log, client)
		if err != nil {
			return err
		}

		return runClassify(cmd.Context(), cmd.OutOrStdout(), p, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(ctx context.Context, out io.Writer, r router, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("message cannot be empty")
	}

	state := conversation.New()
	state.Append(conversation.RoleUser, text)

	turn, err := r.Route(ctx, state)
	if err != nil {
		return fmt.Errorf("classify failed (%s): %w", pipeline.KindFromError(err), err)
	}

	fmt.Fprintf(out, "category: %s\n", turn.Category)
	fmt.Fprintf(out, "persona:  %s\n", turn.Persona)
	return nil
}
