package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"filingscan/internal/config"
	"filingscan/internal/util"
)

type fakeGenerator struct {
	reply       string
	err         error
	instruction string
	text        string
	calls       int
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, instruction, text string) (string, error) {
	f.calls++
	f.instruction = instruction
	f.text = text
	return f.reply, f.err
}

func TestSummarizeTruncatesInput(t *testing.T) {
	gen := &fakeGenerator{reply: "  A private placement was announced.  "}
	s := New(gen, Options{MaxChars: 10, Logger: util.Discard()})

	got := s.Summarize(context.Background(), "0123456789ABCDEF")
	if got != "A private placement was announced." {
		t.Errorf("Summarize = %q", got)
	}
	if gen.text != "0123456789" {
		t.Errorf("generator saw %q, want first 10 chars", gen.text)
	}
	if gen.instruction != config.DefaultInstruction {
		t.Errorf("instruction = %q", gen.instruction)
	}
}

func TestSummarizeFailureYieldsEmpty(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	s := New(gen, Options{Logger: util.Discard()})
	if got := s.Summarize(context.Background(), "text"); got != "" {
		t.Errorf("Summarize on failure = %q, want empty", got)
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1", gen.calls)
	}
}

func TestSummarizeDisabled(t *testing.T) {
	s := New(nil, Options{Logger: util.Discard()})
	if got := s.Summarize(context.Background(), "text"); got != "" {
		t.Errorf("disabled Summarize = %q, want empty", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	s := "héllo wörld"
	got := Truncate(s, 5)
	if got != "héllo" {
		t.Errorf("Truncate = %q, want héllo", got)
	}
	if !utf8.ValidString(got) {
		t.Error("Truncate split a multi-byte rune")
	}
	if Truncate("abc", 10) != "abc" {
		t.Error("short input should be unchanged")
	}
	if Truncate("abc", 0) != "" {
		t.Error("zero limit should yield empty string")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Company sold shares."}}]}`))
	}))
	defer srv.Close()

	gen := NewOpenAI("sk-test", "gpt-4.1", srv.URL, 200, 0)
	out, err := gen.Generate(context.Background(), "sys", "doc text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Company sold shares." {
		t.Errorf("out = %q", out)
	}
	if got.Model != "gpt-4.1" || got.MaxTokens != 200 || got.Temperature != 0 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "doc text" {
		t.Errorf("messages = %+v", got.Messages)
	}

	bad := NewOpenAI("sk-wrong", "gpt-4.1", srv.URL, 200, 0)
	if _, err := bad.Generate(context.Background(), "sys", "doc"); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	if _, err := NewOpenAI("", "gpt-4.1", "", 200, 0).Generate(context.Background(), "s", "t"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestAnthropicMissingKey(t *testing.T) {
	if _, err := NewAnthropic("", "claude-sonnet-4-5", "", 200, 0).Generate(context.Background(), "s", "t"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	g, err := NewGenerator(ctx, config.Summarizer{Provider: config.ProviderNone})
	if err != nil || g != nil {
		t.Errorf("provider none = %v, %v; want nil, nil", g, err)
	}

	g, err = NewGenerator(ctx, config.Summarizer{Provider: config.ProviderOpenAI, APIKey: "k", Model: "m"})
	if err != nil || g.Name() != "openai" {
		t.Errorf("provider openai = %v, %v", g, err)
	}

	g, err = NewGenerator(ctx, config.Summarizer{Provider: config.ProviderAnthropic, APIKey: "k", Model: "m"})
	if err != nil || g.Name() != "anthropic" {
		t.Errorf("provider anthropic = %v, %v", g, err)
	}

	if _, err := NewGenerator(ctx, config.Summarizer{Provider: config.ProviderGemini}); err == nil {
		t.Error("gemini without key should fail")
	}
	if _, err := NewGenerator(ctx, config.Summarizer{Provider: "bogus"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
