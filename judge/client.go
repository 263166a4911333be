package judge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"golang.org/x/time/rate"
)

// ErrUnavailable 判题服务不可用(网络错误, 非 2xx, 非法响应), 调用方可重试
var ErrUnavailable = errors.New("judge unavailable")

const (
	defaultTimeout         = 15 * time.Second
	defaultTokenTTL        = time.Minute
	defaultInitialInterval = 200 * time.Millisecond
	maxResponseBytes       = 4 << 20
)

type Client interface {
	// Run 运行代码, 不计分
	Run(ctx context.Context, req *RunRequest) (*RunResponse, error)
	// Submit 按题目测试用例判题
	Submit(ctx context.Context, req *SubmitRequest) (*Verdict, error)
}

type HTTPClient struct {
	baseURL         string
	httpClient      *http.Client
	token           string
	signingKey      []byte
	issuer          string
	tokenTTL        time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	limiter         *rate.Limiter
	validate        *validator.Validate
	log             logger.Logger
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg config.JudgeConfig, log logger.Logger) *HTTPClient {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tokenTTL := time.Duration(cfg.TokenTTL) * time.Second
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	limit := rate.Inf
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:      &http.Client{Timeout: timeout},
		token:           cfg.Token,
		signingKey:      []byte(cfg.SigningKey),
		issuer:          cfg.Issuer,
		tokenTTL:        tokenTTL,
		maxRetries:      cfg.MaxRetries,
		initialInterval: defaultInitialInterval,
		limiter:         rate.NewLimiter(limit, burst),
		validate:        validator.New(),
		log:             log,
	}
}

func (c *HTTPClient) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("Run failed at validate request: %w", err)
	}
	var resp RunResponse
	if err := c.post(ctx, RunPath, req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Submit(ctx context.Context, req *SubmitRequest) (*Verdict, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("Submit failed at validate request: %w", err)
	}
	var verdict Verdict
	if err := c.post(ctx, SubmitPath, req, &verdict, true); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// post 发送请求并校验响应; 网络错误与非 2xx 按指数退避重试, 非法响应直接失败
func (c *HTTPClient) post(ctx context.Context, path string, body, out any, auth bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("judge %s failed at marshal request: %w", path, err)
	}

	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if auth {
			token, err := c.bearerToken()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.WarnContext(ctx, "judge request failed",
				logger.String("path", path),
				logger.Int("attempt", attempt),
				logger.Error(err))
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return err
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			c.log.WarnContext(ctx, "judge responded non-2xx",
				logger.String("path", path),
				logger.Int("attempt", attempt),
				logger.Int("status_code", resp.StatusCode))
			return fmt.Errorf("judge responded status %d", resp.StatusCode)
		}

		if err = json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("malformed judge response: %w", err))
		}
		if err = c.validate.Struct(out); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid judge response: %w", err))
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)
	if err = backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("%w: %s after %d attempt(s): %v", ErrUnavailable, path, attempt, err)
	}
	return nil
}

// bearerToken 配置了签名密钥时签发短期 JWT, 否则使用静态 token
func (c *HTTPClient) bearerToken() (string, error) {
	if len(c.signingKey) == 0 {
		return c.token, nil
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   "judge",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign judge token failed: %w", err)
	}
	return token, nil
}
