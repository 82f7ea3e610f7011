package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mindroute/pkg/conversation"
	"mindroute/pkg/pipeline"
	"mindroute/pkg/persona"
	providertypes "mindroute/pkg/provider/types"
)

type fakeSender struct {
	texts   []string
	replies map[string]string
	errs    map[string]error
}

func (f *fakeSender) Send(_ context.Context, text string) (pipeline.Turn, error) {
	f.texts = append(f.texts, text)
	if err := f.errs[text]; err != nil {
		return pipeline.Turn{Stage: pipeline.StageNormalized}, err
	}

	return pipeline.Turn{
		Stage:   pipeline.StageEnd,
		Persona: persona.Logical,
		Reply:   conversation.Message{Role: conversation.RoleAssistant, Content: f.replies[text]},
	}, nil
}

func TestIsExitCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "exit", want: true},
		{input: "EXIT", want: false},
		{input: "Exit", want: false},
		{input: " exit ", want: false},
		{input: "quit", want: false},
		{input: "exit now", want: false},
	}

	for _, tt := range tests {
		if got := isExitCommand(tt.input); got != tt.want {
			t.Fatalf("isExitCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestResolvePrompt(t *testing.T) {
	original := promptText
	t.Cleanup(func() {
		promptText = original
	})

	promptText = " from-flag "
	if got := resolvePrompt([]string{"from", "args"}); got != "from-flag" {
		t.Fatalf("resolvePrompt with flag = %q, want %q", got, "from-flag")
	}

	promptText = ""
	if got := resolvePrompt([]string{"hello", "world"}); got != "hello world" {
		t.Fatalf("resolvePrompt with args = %q, want %q", got, "hello world")
	}

	if got := resolvePrompt(nil); got != "" {
		t.Fatalf("resolvePrompt without input = %q, want empty", got)
	}
}

func TestRunInteractiveExitDoesNotSend(t *testing.T) {
	s := &fakeSender{}
	var out bytes.Buffer

	if err := runInteractive(context.Background(), strings.NewReader("exit\nhello\n"), &out, s); err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}
	if len(s.texts) != 0 {
		t.Fatalf("sent %v, want nothing", s.texts)
	}
	if got := out.String(); got != "Message: Thanks for using our service, bye!\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestRunInteractiveConversation(t *testing.T) {
	s := &fakeSender{
		replies: map[string]string{"What is 2+2?": "4", "EXIT": "that was not the exit word"},
	}
	var out bytes.Buffer

	input := "What is 2+2?\n\n   \nEXIT\nexit\n"
	if err := runInteractive(context.Background(), strings.NewReader(input), &out, s); err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}

	if want := []string{"What is 2+2?", "EXIT"}; strings.Join(s.texts, "|") != strings.Join(want, "|") {
		t.Fatalf("sent %q, want %q", s.texts, want)
	}
	got := out.String()
	for _, want := range []string{"Assistant: 4\n", "Assistant: that was not the exit word\n", "Thanks for using our service, bye!\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output %q missing %q", got, want)
		}
	}
}

func TestRunInteractiveReportsFailureAndContinues(t *testing.T) {
	s := &fakeSender{
		replies: map[string]string{"second": "ok"},
		errs: map[string]error{
			"first": &pipeline.StageError{Stage: pipeline.StageNormalized, Kind: pipeline.ErrClassificationFailed, Err: errors.New("timeout")},
		},
	}
	var out bytes.Buffer

	if err := runInteractive(context.Background(), strings.NewReader("first\nsecond\n"), &out, s); err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "turn failed at normalized (classification_failed): classification failed: timeout") {
		t.Fatalf("output %q missing failure report", got)
	}
	if !strings.Contains(got, "Assistant: ok") {
		t.Fatalf("output %q missing second reply", got)
	}
}

func TestRunInteractiveStopsOnEOF(t *testing.T) {
	s := &fakeSender{replies: map[string]string{"hi": "hello"}}
	var out bytes.Buffer

	if err := runInteractive(context.Background(), strings.NewReader("hi"), &out, s); err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}
	if strings.Contains(out.String(), "bye") {
		t.Fatal("goodbye line is only printed for exit")
	}
}

func TestRunInteractiveReturnsWhenCanceledDuringRead(t *testing.T) {
	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	s := &fakeSender{}
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runInteractive(ctx, reader, &out, s)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("runInteractive error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(time.Second):
		t.Fatal("runInteractive kept waiting for input after cancel")
	}
	if len(s.texts) != 0 {
		t.Fatalf("sent %v, want nothing", s.texts)
	}
	if strings.Contains(out.String(), "bye") {
		t.Fatal("goodbye line is only printed for exit")
	}
}

type fakeTotals struct {
	messages []conversation.Message
	usage    providertypes.TokenUsage
	turns    int
}

func (f fakeTotals) Transcript() []conversation.Message { return f.messages }
func (f fakeTotals) Usage() providertypes.TokenUsage    { return f.usage }
func (f fakeTotals) Turns() int                         { return f.turns }

func TestLogSessionSummary(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	logSessionSummary(log, fakeTotals{
		messages: make([]conversation.Message, 4),
		usage:    providertypes.TokenUsage{InputTokens: 12, OutputTokens: 30, TotalTokens: 42},
		turns:    2,
	})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal summary %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"msg":           "Session ended",
		"turns":         float64(2),
		"messages":      float64(4),
		"input_tokens":  float64(12),
		"output_tokens": float64(30),
		"total_tokens":  float64(42),
	}
	for key, value := range want {
		if line[key] != value {
			t.Fatalf("%s = %v, want %v", key, line[key], value)
		}
	}
}

func TestRunSinglePrompt(t *testing.T) {
	s := &fakeSender{replies: map[string]string{"hello": "Hello."}}
	var out bytes.Buffer

	if err := runSinglePrompt(context.Background(), &out, s, "hello"); err != nil {
		t.Fatalf("runSinglePrompt error: %v", err)
	}
	if out.String() != "Assistant: Hello.\n" {
		t.Fatalf("output = %q", out.String())
	}

	s.errs = map[string]error{"boom": &pipeline.StageError{Kind: pipeline.ErrEmptyHistory}}
	if err := runSinglePrompt(context.Background(), &out, s, "boom"); !errors.Is(err, pipeline.ErrEmptyHistory) {
		t.Fatalf("error = %v, want %v", err, pipeline.ErrEmptyHistory)
	}
}
