package narrative

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchreport/internal/aggregate"
	"matchreport/internal/config"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		gen      Generator
		timeout  time.Duration
		want     string
		wantWarn string
	}{
		{
			name: "nil generator",
			gen:  nil,
			want: "",
		},
		{
			name:    "static text is trimmed",
			gen:     Static("  India led the way.\n"),
			timeout: time.Second,
			want:    "India led the way.",
		},
		{
			name: "failure yields empty narrative",
			gen: GeneratorFunc(func(context.Context, string) (string, error) {
				return "", errors.New("quota exceeded")
			}),
			timeout:  time.Second,
			want:     "",
			wantWarn: "quota exceeded",
		},
		{
			name: "timeout yields empty narrative",
			gen: GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
				select {
				case <-time.After(5 * time.Second):
					return "too late", nil
				case <-ctx.Done():
					<-time.After(50 * time.Millisecond)
					return "too late", nil
				}
			}),
			timeout:  20 * time.Millisecond,
			want:     "",
			wantWarn: ErrTimeout.Error(),
		},
		{
			name: "panic yields empty narrative",
			gen: GeneratorFunc(func(context.Context, string) (string, error) {
				panic("boom")
			}),
			timeout:  time.Second,
			want:     "",
			wantWarn: "panicked: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			got := Resolve(context.Background(), tt.gen, "prompt", tt.timeout, testLogger(&logs))
			assert.Equal(t, tt.want, got)
			if tt.wantWarn != "" {
				assert.Contains(t, logs.String(), `"level":"WARN"`)
				assert.Contains(t, logs.String(), tt.wantWarn)
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestResolvePassesPrompt(t *testing.T) {
	var seen string
	gen := GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return "ok", nil
	})

	assert.Equal(t, "ok", Resolve(context.Background(), gen, "the prompt", 0, nil))
	assert.Equal(t, "the prompt", seen)
}

func TestBuildPrompt(t *testing.T) {
	summary := aggregate.Summary{
		{Name: "Total matches", Kind: aggregate.MetricCount, Value: 12, Valid: true},
		{Name: "Top winning team", Kind: aggregate.MetricMode, Text: "India", Valid: true},
		{Name: "Average win by runs", Kind: aggregate.MetricMean},
	}

	prompt := BuildPrompt(summary, "Season: 2011")
	assert.Equal(t, prompt, BuildPrompt(summary, "Season: 2011"))
	assert.Contains(t, prompt, "Filters applied: Season: 2011\n")
	assert.Contains(t, prompt, "- Total matches: 12\n")
	assert.Contains(t, prompt, "- Top winning team: India\n")
	assert.Contains(t, prompt, "- Average win by runs: N/A\n")

	assert.Contains(t, BuildPrompt(nil, ""), "Filters applied: None (all rows)")
}

func TestNew(t *testing.T) {
	gen, err := New(context.Background(), config.NarrativeConfig{Provider: config.NarrativeNone})
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = New(context.Background(), config.NarrativeConfig{Provider: config.NarrativeStatic, StaticText: "hello"})
	require.NoError(t, err)
	assert.Equal(t, Static("hello"), gen)

	gen, err = New(context.Background(), config.NarrativeConfig{Provider: config.NarrativeGemini})
	require.Error(t, err)
	assert.Nil(t, gen)

	_, err = New(context.Background(), config.NarrativeConfig{Provider: "openai"})
	assert.ErrorContains(t, err, "unknown narrative provider")
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"India won most matches."}]}}]}`)
	}))
	defer srv.Close()

	gen, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "Summarise these statistics")
	require.NoError(t, err)
	assert.Equal(t, "India won most matches.", text)
	assert.True(t, strings.HasSuffix(gotPath, "models/"+DefaultGeminiModel+":generateContent"), gotPath)
	assert.Contains(t, gotBody, "Summarise these statistics")
}

func TestGeminiErrorFallsBackThroughResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	gen, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	var logs bytes.Buffer
	got := Resolve(context.Background(), gen, "prompt", 5*time.Second, testLogger(&logs))
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "narrative generation failed")
}

func TestAttemptReportsCause(t *testing.T) {
	text, err := Attempt(context.Background(), nil, "prompt", time.Second)
	require.NoError(t, err)
	assert.Empty(t, text)

	slow := GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return "late", nil
	})
	_, err = Attempt(context.Background(), slow, "prompt", 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Attempt(ctx, slow, "prompt", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
