package chat

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// scrolledTranscript returns a model whose transcript overflows a five-line viewport.
func scrolledTranscript(offsetFromBottom int, follow bool) *model {
	m := newModel(context.Background(), nil, modeInteractive, "", RuntimeInfo{})
	m.viewport.Width = 40
	m.viewport.Height = 5
	m.viewport.SetContent(strings.Repeat("turn\n", 40))
	m.viewport.GotoBottom()
	m.viewport.SetYOffset(max(0, m.viewport.YOffset-offsetFromBottom))
	m.followLog = follow
	return m
}

func TestTranscriptMouseScrolling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		msg         tea.MouseMsg
		startAbove  int
		startFollow bool
		wantHandled bool
		wantFollow  bool
		wantMoved   int
	}{
		{
			name:        "wheel up leaves the latest turn",
			msg:         tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp},
			startFollow: true,
			wantHandled: true,
			wantFollow:  false,
			wantMoved:   -1,
		},
		{
			name:        "wheel down onto the latest turn resumes following",
			msg:         tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			startAbove:  1,
			wantHandled: true,
			wantFollow:  true,
			wantMoved:   1,
		},
		{
			name:        "wheel release is ignored",
			msg:         tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonWheelUp},
			startFollow: true,
			wantFollow:  true,
		},
		{
			name:        "left click is ignored",
			msg:         tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
			startFollow: true,
			wantFollow:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := scrolledTranscript(tt.startAbove, tt.startFollow)
			before := m.viewport.YOffset

			if got := m.handleViewportMouse(tt.msg); got != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", got, tt.wantHandled)
			}
			if m.followLog != tt.wantFollow {
				t.Fatalf("followLog = %v, want %v", m.followLog, tt.wantFollow)
			}

			after := m.viewport.YOffset
			switch {
			case tt.wantMoved < 0 && after >= before:
				t.Fatalf("YOffset = %d, want < %d", after, before)
			case tt.wantMoved > 0 && !m.viewport.AtBottom():
				t.Fatalf("YOffset = %d, want viewport at bottom", after)
			case tt.wantMoved == 0 && after != before:
				t.Fatalf("YOffset = %d, want unchanged %d", after, before)
			}
		})
	}
}
