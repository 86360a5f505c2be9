package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartcane-relay/internal/config"
	"smartcane-relay/internal/metrics"
	"smartcane-relay/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pushPath  = "/v2/bot/message/push"
	replyPath = "/v2/bot/message/reply"

	modePush  = "push"
	modeReply = "reply"
)

// ErrDispatchConfig 缺少 token / 接收人 / reply token，不发起网络请求
var ErrDispatchConfig = errors.New("dispatch not configured")

// ProviderError LINE API 返回非 2xx
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("LINE API returned %d: %s", e.StatusCode, e.Body)
}

// TextMessage LINE 文本消息
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushBody struct {
	To       string        `json:"to"`
	Messages []TextMessage `json:"messages"`
}

type replyBody struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

// Dispatcher 向看护人发送通知
type Dispatcher interface {
	Push(ctx context.Context, req models.PushRequest) error
	Reply(ctx context.Context, req models.ReplyRequest) BestEffort
}

// LineClient LINE Messaging API 客户端
type LineClient struct {
	httpClient *resty.Client
	token      string
	logger     *zap.Logger
}

// NewLineClient 创建 LINE 客户端（不重试，超时即失败）
func NewLineClient(cfg config.LineConfig, logger *zap.Logger) *LineClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &LineClient{
		httpClient: client,
		token:      cfg.ChannelAccessToken,
		logger:     logger,
	}
}

// Push sends a proactive message to one recipient. Failures are returned to
// the caller, which reports them to the device.
func (c *LineClient) Push(ctx context.Context, req models.PushRequest) error {
	if c.token == "" || req.RecipientID == "" {
		metrics.ObserveDispatch(modePush, metrics.ResultConfigError, 0)
		return fmt.Errorf("%w: channel access token or caregiver id missing", ErrDispatchConfig)
	}

	body := pushBody{
		To:       req.RecipientID,
		Messages: []TextMessage{{Type: "text", Text: req.Text}},
	}
	// LINE 以 X-Line-Retry-Key 去重同一请求
	return c.post(ctx, modePush, pushPath, body, map[string]string{
		"X-Line-Retry-Key": uuid.New().String(),
	})
}

// Reply answers a platform callback. The outcome is best-effort only.
func (c *LineClient) Reply(ctx context.Context, req models.ReplyRequest) BestEffort {
	if c.token == "" || req.ReplyHandle == "" {
		metrics.ObserveDispatch(modeReply, metrics.ResultConfigError, 0)
		return BestEffort{Mode: modeReply, Err: fmt.Errorf("%w: channel access token or reply token missing", ErrDispatchConfig)}
	}

	body := replyBody{
		ReplyToken: req.ReplyHandle,
		Messages:   []TextMessage{{Type: "text", Text: req.Text}},
	}
	return BestEffort{Mode: modeReply, Err: c.post(ctx, modeReply, replyPath, body, nil)}
}

func (c *LineClient) post(ctx context.Context, mode, path string, body any, headers map[string]string) error {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetHeaders(headers).
		SetBody(body).
		Post(path)
	elapsed := time.Since(start)

	if err != nil {
		metrics.ObserveDispatch(mode, metrics.ResultTransportError, elapsed)
		c.logger.Error("LINE API call failed",
			zap.String("mode", mode),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call LINE %s API: %w", mode, err)
	}

	if !resp.IsSuccess() {
		metrics.ObserveDispatch(mode, metrics.ResultProviderError, elapsed)
		c.logger.Error("LINE API returned error",
			zap.String("mode", mode),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
			zap.String("line_request_id", resp.Header().Get("X-Line-Request-Id")),
		)
		return &ProviderError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	metrics.ObserveDispatch(mode, metrics.ResultSuccess, elapsed)
	c.logger.Info("LINE message sent",
		zap.String("mode", mode),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", elapsed),
		zap.String("line_request_id", resp.Header().Get("X-Line-Request-Id")),
	)
	return nil
}
