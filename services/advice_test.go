package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riserecover/server/models"
)

func TestFallbackAdviceText(t *testing.T) {
	f := FallbackAdvice()
	assert.Equal(t, []string{
		"Drink plenty of water to help flush toxins.",
		"Try 4-7-8 breathing: Inhale for 4s, hold for 7s, exhale for 8s.",
		"Take a warm bath with Epsom salts for muscle relaxation.",
	}, f.PracticalTips)
	assert.Equal(t, "You're doing great, keep going!", f.Encouragement)

	f.PracticalTips[0] = "mutated"
	assert.Equal(t, "Drink plenty of water to help flush toxins.", FallbackAdvice().PracticalTips[0])
}

func TestGenerateFallsBackOnError(t *testing.T) {
	advisor := &stubAdvisor{err: errors.New("quota exceeded")}
	svc := NewAdviceService(advisor, time.Second, nil)

	got := svc.Generate(context.Background(), AdviceRequest{Addiction: "Alcohol"})
	assert.Equal(t, FallbackAdvice(), got)
	assert.Equal(t, 1, advisor.calls, "no retry")
}

func TestGenerateWithoutAdvisorUsesFallback(t *testing.T) {
	svc := NewAdviceService(nil, 0, nil)
	assert.Equal(t, FallbackAdvice(), svc.Generate(context.Background(), AdviceRequest{}))
}

func TestGeneratePassesAdviceThrough(t *testing.T) {
	want := models.Advice{PracticalTips: []string{"a", "b", "c"}, Encouragement: "go"}
	svc := NewAdviceService(&stubAdvisor{advice: want}, time.Second, nil)
	assert.Equal(t, want, svc.Generate(context.Background(), AdviceRequest{}))
}

type blockingAdvisor struct{}

func (blockingAdvisor) Advise(ctx context.Context, _ AdviceRequest) (models.Advice, error) {
	<-ctx.Done()
	return models.Advice{}, ctx.Err()
}

func TestGenerateTimesOut(t *testing.T) {
	svc := NewAdviceService(blockingAdvisor{}, 20*time.Millisecond, nil)
	start := time.Now()
	got := svc.Generate(context.Background(), AdviceRequest{})
	assert.Equal(t, FallbackAdvice(), got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type ctxCheckingAdvisor struct{ sawCancelled bool }

func (a *ctxCheckingAdvisor) Advise(ctx context.Context, _ AdviceRequest) (models.Advice, error) {
	a.sawCancelled = ctx.Err() != nil
	return models.Advice{PracticalTips: []string{"x", "y", "z"}, Encouragement: "ok"}, nil
}

func TestGenerateIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	advisor := &ctxCheckingAdvisor{}
	got := NewAdviceService(advisor, time.Second, nil).Generate(ctx, AdviceRequest{})
	assert.False(t, advisor.sawCancelled)
	assert.Equal(t, "ok", got.Encouragement)
}

func TestSymptomSummary(t *testing.T) {
	req := AdviceRequest{Symptoms: []models.SymptomRecord{
		{Name: "Headache", Severity: 7},
		{Name: "Anxiety", Severity: 3},
	}}
	assert.Equal(t, "Headache (7/10), Anxiety (3/10)", req.SymptomSummary())
	assert.Equal(t, "", AdviceRequest{}.SymptomSummary())
}

func TestParseAdvice(t *testing.T) {
	got, err := parseAdvice(`{"practicalTips":[" Drink ginger tea ","Walk","Call 1926"],"encouragement":"One day at a time."}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drink ginger tea", "Walk", "Call 1926"}, got.PracticalTips)
	assert.Equal(t, "One day at a time.", got.Encouragement)

	for name, text := range map[string]string{
		"empty":           "",
		"not json":        "drink water",
		"two tips":        `{"practicalTips":["a","b"],"encouragement":"x"}`,
		"four tips":       `{"practicalTips":["a","b","c","d"],"encouragement":"x"}`,
		"blank tip":       `{"practicalTips":["a","  ","c"],"encouragement":"x"}`,
		"no encourage":    `{"practicalTips":["a","b","c"]}`,
		"blank encourage": `{"practicalTips":["a","b","c"],"encouragement":" "}`,
		"wrong type":      `{"practicalTips":"a,b,c","encouragement":"x"}`,
	} {
		_, err := parseAdvice(text)
		assert.Error(t, err, name)
	}
}

func TestBuildPromptIncludesResources(t *testing.T) {
	prompt := buildPrompt(AdviceRequest{
		Addiction: "Nicotine",
		DaysClean: 12,
		Symptoms:  []models.SymptomRecord{{Name: "Insomnia", Severity: 8}},
		Notes:     "rough night",
		Resources: models.DefaultResourceConfig(),
	})
	for _, want := range []string{
		"Nicotine", "12 days", "Insomnia (8/10)", "rough night",
		"Samahan: Instant herbal tea for body aches and colds.",
		"Sumithrayo (Suicide Prevention): 011 269 6666",
	} {
		assert.True(t, strings.Contains(prompt, want), "prompt missing %q", want)
	}
}

func TestNewGeminiAdvisorRequiresKey(t *testing.T) {
	_, err := NewGeminiAdvisor(context.Background(), "", "")
	assert.Error(t, err)
}
