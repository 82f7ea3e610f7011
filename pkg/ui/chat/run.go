package chat

import (
	"context"
	"fmt"

	providertypes "mindroute/pkg/provider/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const GoodbyeLine = "Thanks for using our service, bye!"

// Reply is one answered turn as the UI shows it.
type Reply struct {
	Text     string
	Persona  string
	Category string
	Usage    *providertypes.TokenUsage
}

type PromptFunc func(ctx context.Context, text string) (Reply, error)

// RuntimeInfo is shown in the header.
type RuntimeInfo struct {
	Provider string
	Model    string
}

func RunInteractive(ctx context.Context, promptFn PromptFunc, info RuntimeInfo) error {
	model := newModel(ctx, promptFn, modeInteractive, "", info)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return err
	}

	fmt.Println(renderGoodbyeBanner())
	return nil
}

func RunOneShot(ctx context.Context, promptFn PromptFunc, text string, info RuntimeInfo) error {
	model := newModel(ctx, promptFn, modeOneShot, text, info)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("24")).
		Padding(1, 2)

	return style.Render(GoodbyeLine)
}
