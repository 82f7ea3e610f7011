/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"mindroute/pkg/config"
	"mindroute/pkg/conversation"
	"mindroute/pkg/pipeline"
	"mindroute/pkg/provider"
	providertypes "mindroute/pkg/provider/types"
	"mindroute/pkg/session"
	"mindroute/pkg/ui/chat"

	"github.com/spf13/cobra"
)

const (
	exitCommand = "exit"
	inputPrompt = "Message: "
	replyPrefix = "Assistant: "
	goodbyeLine = chat.GoodbyeLine
)

var (
	promptText string
	useTUI     bool
)

type sender interface {
	Send(ctx context.Context, text string) (pipeline.Turn, error)
}

type sessionTotals interface {
	Transcript() []conversation.Message
	Usage() providertypes.TokenUsage
	Turns() int
}

type inputLine struct {
	text string
	err  error
}

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message or start an interactive conversation",
	Long: `Loads configuration, connects to the configured model provider, and routes one message or an interactive conversation through the therapist/logical pipeline.

In interactive mode blank lines are skipped. Only the exact line "exit" ends the
conversation; end of input or Ctrl+C also stops it without the goodbye line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := resolvePrompt(args)

		cfg, log, err := loadRuntime("cmd.chat")
		if err != nil {
			return err
		}

		client, err := provider.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize provider: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sess, err := session.Start(ctx, cfg, log, client)
		if err != nil {
			return err
		}
		log.Debug("Session started", "provider", cfg.Model.Provider, "model", cfg.Model.Model, "tui", useTUI)
		defer logSessionSummary(log, sess)

		if useTUI {
			return runTUI(ctx, cfg, sess, text)
		}

		if text != "" {
			return runSinglePrompt(ctx, cmd.OutOrStdout(), sess, text)
		}

		err = runInteractive(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sess)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&promptText, "prompt", "p", "", "message to send")
	chatCmd.Flags().BoolVar(&useTUI, "tui", false, "use the full-screen terminal UI")
}

func resolvePrompt(args []string) string {
	if value := strings.TrimSpace(promptText); value != "" {
		return value
	}

	if len(args) == 0 {
		return ""
	}

	return strings.TrimSpace(strings.Join(args, " "))
}

func runSinglePrompt(ctx context.Context, out io.Writer, s sender, text string) error {
	turn, err := s.Send(ctx, text)
	if err != nil {
		return fmt.Errorf("turn failed at %s (%s): %w", turn.Stage, pipeline.KindFromError(err), err)
	}

	printAssistantMessage(out, turn.Reply.Content)
	return nil
}

// runInteractive reads one message per line until the literal line "exit",
// end of input, or ctx is done. A failed turn is reported and the loop keeps going.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, s sender) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := readLines(ctx, in)

	for {
		fmt.Fprint(out, inputPrompt)

		var next inputLine
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case next, ok = <-lines:
		}

		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		if next.err != nil {
			fmt.Fprintln(out)
			return fmt.Errorf("input error: %w", next.err)
		}

		line := strings.TrimSuffix(next.text, "\r")
		if isExitCommand(line) {
			fmt.Fprintln(out, goodbyeLine)
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		turn, err := s.Send(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(out, "turn failed at %s (%s): %v\n", turn.Stage, pipeline.KindFromError(err), err)
			continue
		}

		printAssistantMessage(out, turn.Reply.Content)
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The channel is closed at end of input.
func readLines(ctx context.Context, in io.Reader) <-chan inputLine {
	lines := make(chan inputLine)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- inputLine{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case lines <- inputLine{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return lines
}

func logSessionSummary(log *slog.Logger, s sessionTotals) {
	usage := s.Usage()
	log.Info("Session ended",
		"turns", s.Turns(),
		"messages", len(s.Transcript()),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens,
	)
}

func runTUI(ctx context.Context, cfg *config.Config, s sender, text string) error {
	promptFn := func(ctx context.Context, text string) (chat.Reply, error) {
		turn, err := s.Send(ctx, text)
		if err != nil {
			return chat.Reply{}, err
		}

		return chat.Reply{
			Text:     turn.Reply.Content,
			Persona:  string(turn.Persona),
			Category: string(turn.Category),
			Usage:    turn.Usage,
		}, nil
	}

	info := chat.RuntimeInfo{Provider: cfg.Model.Provider, Model: cfg.Model.Model}
	if text != "" {
		return chat.RunOneShot(ctx, promptFn, text, info)
	}
	return chat.RunInteractive(ctx, promptFn, info)
}

func printAssistantMessage(out io.Writer, message string) {
	fmt.Fprintln(out, replyPrefix+message)
}

// isExitCommand is case-sensitive and does not trim: only "exit" ends the loop.
func isExitCommand(line string) bool {
	return line == exitCommand
}
