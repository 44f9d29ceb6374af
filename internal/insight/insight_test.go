package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/digishe/digishe/internal/ledger"
	"github.com/digishe/digishe/internal/logging"
)

type fakeModels struct {
	reply  string
	err    error
	delay  time.Duration
	prompt string
	model  string
	budget *int32
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if config != nil && config.ThinkingConfig != nil {
		f.budget = config.ThinkingConfig.ThinkingBudget
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestNewWithoutKeyReturnsStaticFallback(t *testing.T) {
	g, err := New(context.Background(), GeminiConfig{}, logging.Discard())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := g.Generate(context.Background(), Summary{}); got != FallbackNoKey {
		t.Fatalf("expected no-key fallback, got %q", got)
	}
}

func TestGeminiGenerator(t *testing.T) {
	summary := Summary{
		BusinessName: "Ama's Kitchen",
		Category:     "Food",
		Sales:        decimal.RequireFromString("1234.5"),
		Expenses:     decimal.RequireFromString("200"),
		Currency:     "GHS",
	}

	t.Run("returns model text", func(t *testing.T) {
		f := &fakeModels{reply: "  Keep receipts for every sale.  "}
		g := newGeminiGenerator(f, GeminiConfig{}, logging.Discard())
		if got := g.Generate(context.Background(), summary); got != "Keep receipts for every sale." {
			t.Fatalf("unexpected tip %q", got)
		}
		if f.model != DefaultModel {
			t.Fatalf("expected default model, got %q", f.model)
		}
		if f.budget == nil || *f.budget != 0 {
			t.Fatalf("expected thinking budget 0, got %v", f.budget)
		}
		if !strings.Contains(f.prompt, "Ama's Kitchen (Food)") || !strings.Contains(f.prompt, "1,234.50") {
			t.Fatalf("prompt missing summary: %q", f.prompt)
		}
	})

	t.Run("error falls back", func(t *testing.T) {
		g := newGeminiGenerator(&fakeModels{err: errors.New("quota")}, GeminiConfig{}, logging.Discard())
		if got := g.Generate(context.Background(), summary); got != FallbackError {
			t.Fatalf("expected error fallback, got %q", got)
		}
	})

	t.Run("empty reply falls back", func(t *testing.T) {
		g := newGeminiGenerator(&fakeModels{reply: " "}, GeminiConfig{}, logging.Discard())
		if got := g.Generate(context.Background(), summary); got != FallbackEmpty {
			t.Fatalf("expected empty fallback, got %q", got)
		}
	})

	t.Run("timeout falls back", func(t *testing.T) {
		f := &fakeModels{reply: "late", delay: time.Second}
		g := newGeminiGenerator(f, GeminiConfig{Timeout: 20 * time.Millisecond}, logging.Discard())
		start := time.Now()
		if got := g.Generate(context.Background(), summary); got != FallbackError {
			t.Fatalf("expected error fallback, got %q", got)
		}
		if time.Since(start) > 500*time.Millisecond {
			t.Fatal("generator did not honour its timeout")
		}
	})
}

func TestNewSummaryUsesRecentEntries(t *testing.T) {
	var entries []ledger.Entry
	for i := 0; i < 12; i++ {
		entries = append(entries, ledger.Entry{Kind: ledger.KindSale, Amount: decimal.NewFromInt(100)})
	}
	entries = append(entries, ledger.Entry{Kind: ledger.KindExpense, Amount: decimal.NewFromInt(40)})

	s := NewSummary("Shop", "Trading", entries, "GHS")
	if !s.Sales.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected sales over last 10 entries = 900, got %s", s.Sales)
	}
	if !s.Expenses.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected expenses 40, got %s", s.Expenses)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("1234.5"), "GHS"); !strings.Contains(got, "1,234.50") {
		t.Fatalf("unexpected GHS format %q", got)
	}
	for raw, want := range map[string]string{"45.559": "45.559", "45.5590": "45.559", "0.005": "0.005", "7": "7.00"} {
		if got := FormatAmount(decimal.RequireFromString(raw), "GHS"); !strings.HasSuffix(got, want) {
			t.Fatalf("FormatAmount(%s): expected suffix %q, got %q", raw, want, got)
		}
	}
	if got := FormatAmount(decimal.RequireFromString("3"), "XXX1"); got != "3.00 XXX1" {
		t.Fatalf("unexpected unknown currency format %q", got)
	}
}
