package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"learning_path_backend/internal/config"
	"learning_path_backend/internal/model"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"
	"learning_path_backend/pkg/monitoring"
	"learning_path_backend/pkg/retry"

	"go.uber.org/zap"
)

const (
	generationMaxAttempts = 3
	generationRetryDelay  = 500 * time.Millisecond
	generationTimeout     = 120 * time.Second
)

// GenerateRequest 生成学习路径的输入表单
type GenerateRequest struct {
	Skill               string   `json:"skill" binding:"required"`
	Proficiency         string   `json:"proficiency" binding:"required"`
	TimePerWeek         string   `json:"timePerWeek" binding:"required"`
	TargetCompletion    string   `json:"targetCompletion" binding:"required"`
	DifficultyLevel     string   `json:"difficultyLevel" binding:"required"`
	LearningStyles      []string `json:"learningStyles"`
	LearningPreferences []string `json:"learningPreferences"`
}

// GeneratorService 调用 OpenAI 兼容接口生成课程模块。
// 配置可被热更新，读写都要持锁。
type GeneratorService struct {
	mu     sync.RWMutex
	cfg    config.AIConfig
	client *http.Client
}

func NewGeneratorService(cfg config.AIConfig) *GeneratorService {
	return &GeneratorService{
		cfg:    cfg,
		client: &http.Client{Timeout: generationTimeout},
	}
}

// UpdateConfig 配置文件热重载时替换 AI 接入参数
func (s *GeneratorService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *GeneratorService) snapshot() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// moduleSchema 约束模型输出为模块数组，字段与 Module 的 JSON 标签一一对应
var moduleSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "modules": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "moduleTitle": {"type": "string"},
          "description": {"type": "string"},
          "subTopics": {"type": "array", "items": {"type": "string"}},
          "suggestedResourceType": {"type": "string"},
          "recommendedBooks": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {"title": {"type": "string"}, "author": {"type": "string"}},
              "required": ["title", "author"],
              "additionalProperties": false
            }
          },
          "recommendedCourses": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {"title": {"type": "string"}, "platform": {"type": "string"}},
              "required": ["title", "platform"],
              "additionalProperties": false
            }
          },
          "recommendedYouTubeVideos": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {"title": {"type": "string"}, "channel": {"type": "string"}, "description": {"type": "string"}},
              "required": ["title", "channel", "description"],
              "additionalProperties": false
            }
          },
          "estimatedHours": {"type": "number"},
          "weeklySchedule": {"type": "string"},
          "difficultyRating": {"type": "integer"},
          "learningTips": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["moduleTitle", "description", "subTopics", "suggestedResourceType", "recommendedBooks", "recommendedCourses", "recommendedYouTubeVideos", "estimatedHours", "weeklySchedule", "difficultyRating", "learningTips"],
        "additionalProperties": false
      }
    }
  },
  "required": ["modules"],
  "additionalProperties": false
}`)

func buildPrompt(req GenerateRequest) string {
	styles := strings.Join(req.LearningStyles, ", ")
	if styles == "" {
		styles = "any"
	}
	prefs := strings.Join(req.LearningPreferences, ", ")
	if prefs == "" {
		prefs = "any"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized learning path for %q.\n", req.Skill)
	fmt.Fprintf(&b, "Current proficiency: %s. Desired difficulty level: %s.\n", req.Proficiency, req.DifficultyLevel)
	fmt.Fprintf(&b, "Available study time: %s per week. Target completion: %s.\n", req.TimePerWeek, req.TargetCompletion)
	fmt.Fprintf(&b, "Preferred learning styles: %s. Preferred resource types: %s.\n\n", styles, prefs)
	b.WriteString("Produce 5-8 learning modules ordered from fundamentals to advanced topics. For each module provide:\n")
	b.WriteString("- moduleTitle: a concise module name\n")
	b.WriteString("- description: 2-3 sentences on what the module covers and why it matters\n")
	b.WriteString("- subTopics: 3-6 concrete topics to study, each completable in one sitting\n")
	b.WriteString("- suggestedResourceType: the single best resource type for this module\n")
	b.WriteString("- recommendedBooks: 2-3 real, well-known books with authors\n")
	b.WriteString("- recommendedCourses: 2-3 real online courses with their platforms\n")
	b.WriteString("- recommendedYouTubeVideos: 2-3 real YouTube videos or channels with a short description each\n")
	b.WriteString("- estimatedHours: realistic total hours for the module given the weekly time budget\n")
	b.WriteString("- weeklySchedule: how to spread the module across the learner's week\n")
	b.WriteString("- difficultyRating: integer 1-5\n")
	b.WriteString("- learningTips: 2-3 practical tips specific to this module\n")
	b.WriteString("\nEvery field is mandatory. Recommendations must be real and relevant to the skill.")
	return b.String()
}

// Generate 调用模型生成模块列表。未配置 API Key 直接失败，不发起网络请求；
// 仅网络层故障会重试，上游业务错误原样返回。
func (s *GeneratorService) Generate(ctx context.Context, req GenerateRequest) (model.ModuleList, error) {
	cfg := s.snapshot()
	if cfg.APIKey == "" {
		monitoring.GenerationCounter.WithLabelValues("config_error").Inc()
		return nil, util.ErrAPIKeyMissing
	}

	start := time.Now()
	modules, err := s.generate(ctx, cfg, req)
	monitoring.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		monitoring.GenerationCounter.WithLabelValues(generationOutcome(err)).Inc()
		return nil, err
	}
	monitoring.GenerationCounter.WithLabelValues("success").Inc()
	return modules, nil
}

func generationOutcome(err error) string {
	switch err.(type) {
	case *util.UpstreamError:
		return "upstream_error"
	case *util.ParseError:
		return "parse_error"
	}
	if err == util.ErrEmptyCompletion {
		return "empty_completion"
	}
	return "network_error"
}

func (s *GeneratorService) generate(ctx context.Context, cfg config.AIConfig, req GenerateRequest) (model.ModuleList, error) {
	payload := chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert curriculum designer. Respond only with JSON matching the requested schema."},
			{Role: "user", Content: buildPrompt(req)},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "learning_path_modules",
				Strict: true,
				Schema: moduleSchema,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions"

	var content string
	err = retry.Do(ctx, generationMaxAttempts, generationRetryDelay, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

		resp, err := s.client.Do(httpReq)
		if err != nil {
			logger.Log.Warn("AI request failed, may retry", zap.Error(err))
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Transient(err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &util.UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(respBody)}
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return &util.ParseError{Err: err}
		}
		if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
			return util.ErrEmptyCompletion
		}
		content = parsed.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	modules, err := parseModules(content)
	if err != nil {
		logger.Log.Error("Failed to parse generated modules", zap.Error(err))
		return nil, err
	}
	return modules, nil
}

func upstreamMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// parseModules 兼容两种输出：顶层数组，或 {"modules": [...]} 包裹对象
func parseModules(content string) (model.ModuleList, error) {
	trimmed := strings.TrimSpace(content)

	var modules model.ModuleList
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &modules); err != nil {
			return nil, &util.ParseError{Err: err}
		}
	} else {
		var wrapper struct {
			Modules model.ModuleList `json:"modules"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, &util.ParseError{Err: err}
		}
		modules = wrapper.Modules
	}

	if len(modules) == 0 {
		return nil, util.ErrEmptyCompletion
	}
	return modules, nil
}
