package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"learning_path_backend/internal/config"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func testGenerateRequest() GenerateRequest {
	return GenerateRequest{
		Skill:            "Go",
		Proficiency:      "beginner",
		TimePerWeek:      "10",
		TargetCompletion: "3 months",
		DifficultyLevel:  "moderate",
		LearningStyles:   []string{"visual"},
	}
}

func chatCompletionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

const moduleJSON = `{"modules":[{"moduleTitle":"Basics","description":"d","subTopics":["a","b"],"suggestedResourceType":"video","recommendedBooks":[],"recommendedCourses":[],"recommendedYouTubeVideos":[],"estimatedHours":5,"weeklySchedule":"2h/day","difficultyRating":2,"learningTips":[]}]}`

func TestGenerateRequiresAPIKey(t *testing.T) {
	svc := NewGeneratorService(config.AIConfig{BaseURL: "http://localhost", Model: "m"})

	_, err := svc.Generate(context.Background(), testGenerateRequest())
	assert.ErrorIs(t, err, util.ErrAPIKeyMissing)
}

func TestGenerateSuccess(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(chatCompletionBody(moduleJSON)))
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key", Model: "test-model"})
	modules, err := svc.Generate(context.Background(), testGenerateRequest())

	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "Basics", modules[0].Title)
	assert.Equal(t, []string{"a", "b"}, modules[0].SubTopics)
	assert.Equal(t, 5.0, modules[0].EstimatedHours)

	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "test-model", gotBody.Model)
	require.NotNil(t, gotBody.ResponseFormat)
	assert.Equal(t, "json_schema", gotBody.ResponseFormat.Type)
}

func TestGenerateParsesArrayRoot(t *testing.T) {
	content := `[{"moduleTitle":"Basics","description":"d","subTopics":["a"],"suggestedResourceType":"video","recommendedBooks":[],"recommendedCourses":[],"recommendedYouTubeVideos":[],"estimatedHours":5,"weeklySchedule":"w","difficultyRating":1,"learningTips":[]}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody(content)))
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	modules, err := svc.Generate(context.Background(), testGenerateRequest())

	require.NoError(t, err)
	assert.Len(t, modules, 1)
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err := svc.Generate(context.Background(), testGenerateRequest())

	var ue *util.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
	assert.Equal(t, "rate limited", ue.Message)
}

func TestGenerateUpstreamErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err := svc.Generate(context.Background(), testGenerateRequest())

	var ue *util.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, calls)
}

func TestGenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err := svc.Generate(context.Background(), testGenerateRequest())

	assert.ErrorIs(t, err, util.ErrEmptyCompletion)
}

func TestGenerateEmptyModuleList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody(`{"modules":[]}`)))
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err := svc.Generate(context.Background(), testGenerateRequest())

	assert.ErrorIs(t, err, util.ErrEmptyCompletion)
}

func TestGenerateParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody("not valid json at all")))
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err := svc.Generate(context.Background(), testGenerateRequest())

	var pe *util.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestGenerateNetworkErrorRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// 掐断连接，模拟网络层故障
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	svc := NewGeneratorService(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err := svc.Generate(context.Background(), testGenerateRequest())

	require.Error(t, err)
	assert.Equal(t, generationMaxAttempts, calls)
}

func TestUpdateConfigSwapsKey(t *testing.T) {
	svc := NewGeneratorService(config.AIConfig{})
	_, err := svc.Generate(context.Background(), testGenerateRequest())
	require.ErrorIs(t, err, util.ErrAPIKeyMissing)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody(moduleJSON)))
	}))
	defer srv.Close()

	svc.UpdateConfig(config.AIConfig{BaseURL: srv.URL, APIKey: "key"})
	_, err = svc.Generate(context.Background(), testGenerateRequest())
	assert.NoError(t, err)
}
