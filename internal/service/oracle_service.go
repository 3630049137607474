package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/util"
	"resume_optimizer_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

// Oracle 生成式模型的抽象：给 prompt，回纯文本。
// 上游不保证结构化输出，所有调用方必须防御性解析。
type Oracle interface {
	Generate(ctx context.Context, purpose, prompt string) (string, error)
}

// OracleService OpenAI 兼容 /chat/completions 客户端。
// 内置全进程共享的最小间隔限流器，尊重上游配额；
// 令牌用量按 len/4 估算，计入 redis 与 prometheus。
type OracleService struct {
	config  config.AIConfig
	client  *http.Client
	limiter *rate.Limiter
	rdb     *redis.Client // 可为 nil（测试或未配置 redis）
}

func NewOracleService(cfg config.AIConfig, minInterval time.Duration, rdb *redis.Client) *OracleService {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &OracleService{
		config:  cfg,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
		rdb:     rdb,
	}
}

// SetMinInterval 配置热更新时调整限流间隔
func (s *OracleService) SetMinInterval(minInterval time.Duration) {
	if minInterval > 0 {
		s.limiter.SetLimit(rate.Every(minInterval))
	} else {
		s.limiter.SetLimit(rate.Inf)
	}
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []aiChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *OracleService) Generate(ctx context.Context, purpose, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrOracle, err)
	}

	reqBody := chatCompletionRequest{
		Model: s.config.Model,
		Messages: []aiChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrOracle, err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrOracle, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		monitoring.OracleRequestCounter.WithLabelValues(purpose, "transport_error").Inc()
		return "", fmt.Errorf("%w: %v", util.ErrOracle, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	monitoring.OracleDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		monitoring.OracleRequestCounter.WithLabelValues(purpose, fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
		return "", fmt.Errorf("%w: status %d: %s", util.ErrOracle, resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		monitoring.OracleRequestCounter.WithLabelValues(purpose, "bad_response").Inc()
		return "", fmt.Errorf("%w: %v", util.ErrOracle, err)
	}

	if result.Error != nil {
		monitoring.OracleRequestCounter.WithLabelValues(purpose, "api_error").Inc()
		return "", fmt.Errorf("%w: %s", util.ErrOracle, result.Error.Message)
	}

	if len(result.Choices) == 0 {
		monitoring.OracleRequestCounter.WithLabelValues(purpose, "empty").Inc()
		return "", fmt.Errorf("%w: no choices returned", util.ErrOracle)
	}

	content := result.Choices[0].Message.Content
	monitoring.OracleRequestCounter.WithLabelValues(purpose, "ok").Inc()
	s.recordUsage(ctx, purpose, approxTokens(prompt), approxTokens(content))

	return content, nil
}

// approxTokens 粗略估算：4个字符算一个 token
func approxTokens(text string) int {
	return len(text) / 4
}

func (s *OracleService) recordUsage(ctx context.Context, purpose string, inTokens, outTokens int) {
	monitoring.OracleTokenCounter.WithLabelValues(purpose, "input").Add(float64(inTokens))
	monitoring.OracleTokenCounter.WithLabelValues(purpose, "output").Add(float64(outTokens))

	if s.rdb == nil {
		return
	}
	pipe := s.rdb.Pipeline()
	pipe.IncrBy(ctx, "oracle:tokens:total", int64(inTokens+outTokens))
	pipe.IncrBy(ctx, "oracle:tokens:purpose:"+purpose, int64(inTokens+outTokens))
	pipe.Incr(ctx, "oracle:requests:total")
	pipe.Exec(ctx)
}

// UsageStats 累计的模型用量（redis 未配置时为零值）
type UsageStats struct {
	TotalTokens   int64   `json:"totalTokens"`
	TotalRequests int64   `json:"totalRequests"`
	EstimatedCost float64 `json:"estimatedCost"`
}

func (s *OracleService) Usage(ctx context.Context) (*UsageStats, error) {
	stats := &UsageStats{}
	if s.rdb == nil {
		return stats, nil
	}
	if v, err := s.rdb.Get(ctx, "oracle:tokens:total").Int64(); err == nil {
		stats.TotalTokens = v
	}
	if v, err := s.rdb.Get(ctx, "oracle:requests:total").Int64(); err == nil {
		stats.TotalRequests = v
	}
	stats.EstimatedCost = float64(stats.TotalTokens) * 0.00000025
	return stats, nil
}

func (s *OracleService) ResetUsage(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	keys, err := s.rdb.Keys(ctx, "oracle:*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
