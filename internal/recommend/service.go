// Package recommend 封装受熔断器保护的相关书籍推荐服务调用
package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/bookbff-go/internal/breaker"
	"github.com/shengyanli1982/bookbff-go/internal/client"
	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/constants"
)

// targetName 推荐服务在日志和客户端中的名称
const targetName = "recommend"

// 服务构造错误
var (
	ErrNilGuard  = errors.New("breaker guard cannot be nil")
	ErrNilClient = errors.New("http client cannot be nil")
)

// Result 代表推荐服务的成功结果
type Result struct {
	StatusCode  int    // 200 或 204
	Body        []byte // 200 时为推荐服务原始响应体
	ContentType string
	Phase       breaker.Phase // 放行时熔断器所处阶段
}

// Empty 判断是否为空结果
func (r *Result) Empty() bool {
	return r.StatusCode == http.StatusNoContent
}

// Service 代表相关书籍推荐调用
type Service struct {
	guard       *breaker.Guard
	client      client.HTTPClient
	urlTemplate string
	timeout     time.Duration
	logger      logr.Logger
}

// NewService 创建推荐服务调用
func NewService(guard *breaker.Guard, httpClient client.HTTPClient, cfg *config.RecommendConfig, logger logr.Logger) (*Service, error) {
	if guard == nil {
		return nil, ErrNilGuard
	}
	if httpClient == nil {
		return nil, ErrNilClient
	}

	urlTemplate := constants.DefaultRecommendURL
	timeout := time.Duration(constants.DefaultRecommendTimeout) * time.Millisecond
	if cfg != nil {
		if cfg.URL != "" {
			urlTemplate = cfg.URL
		}
		if cfg.Timeout > 0 {
			timeout = time.Duration(cfg.Timeout) * time.Millisecond
		}
	}

	return &Service{
		guard:       guard,
		client:      httpClient,
		urlTemplate: urlTemplate,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Classify 将推荐服务的状态码映射为结果分类
func Classify(statusCode int) breaker.Outcome {
	switch statusCode {
	case http.StatusOK:
		return breaker.OutcomeSuccess
	case http.StatusNoContent, http.StatusNotFound:
		return breaker.OutcomeEmpty
	case http.StatusServiceUnavailable:
		return breaker.OutcomeUnavailable
	default:
		return breaker.OutcomeUnexpected
	}
}

// isTimeout 判断传输错误是否为超时
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Endpoint 返回指定 ISBN 的推荐服务地址
func (s *Service) Endpoint(isbn string) string {
	return strings.ReplaceAll(s.urlTemplate, constants.ISBNPlaceholder, url.PathEscape(isbn))
}

// Related 查询相关书籍
// 熔断器阻断时返回 breaker.ErrCircuitOpen 且不发起网络请求；
// 调用结果在返回前写入熔断器状态。
func (s *Service) Related(ctx context.Context, isbn string) (*Result, error) {
	phase, err := s.guard.Allow(ctx)
	if err != nil {
		return nil, err
	}

	// 状态写入不受调用超时和客户端断开影响
	recordCtx := context.WithoutCancel(ctx)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := s.Endpoint(isbn)
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendation request: %w", err)
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)

	start := time.Now()
	resp, err := s.client.Do(req, &client.Target{Name: targetName, URL: endpoint})
	if err != nil {
		return nil, s.transportFailure(ctx, recordCtx, phase, isbn, err)
	}
	defer resp.Body.Close()

	outcome := Classify(resp.StatusCode)

	var body []byte
	if outcome == breaker.OutcomeSuccess {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, s.transportFailure(ctx, recordCtx, phase, isbn, err)
		}
	}

	s.guard.Record(recordCtx, phase, outcome)
	s.logger.V(1).Info("Recommendation call completed",
		"isbn", isbn,
		"status_code", resp.StatusCode,
		"outcome", outcome.String(),
		"phase", phase.String(),
		"duration_ms", time.Since(start).Milliseconds())

	switch outcome {
	case breaker.OutcomeSuccess:
		return &Result{
			StatusCode:  http.StatusOK,
			Body:        body,
			ContentType: resp.Header.Get(constants.HeaderContentType),
			Phase:       phase,
		}, nil
	case breaker.OutcomeEmpty:
		return &Result{StatusCode: http.StatusNoContent, Phase: phase}, nil
	default:
		return nil, breaker.NewStatusError(resp.StatusCode, breaker.ErrorForOutcome(outcome))
	}
}

// transportFailure 处理未拿到完整响应的调用
// 调用方主动取消时不改变熔断器状态；超时记为 timeout，其余传输错误记为 unexpected。
func (s *Service) transportFailure(ctx, recordCtx context.Context, phase breaker.Phase, isbn string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		s.logger.V(1).Info("Recommendation call abandoned by caller", "isbn", isbn, "error", err.Error())
		return ctxErr
	}

	outcome := breaker.OutcomeUnexpected
	if isTimeout(err) {
		outcome = breaker.OutcomeTimeout
	}

	s.guard.Record(recordCtx, phase, outcome)
	s.logger.V(1).Info("Recommendation call failed",
		"isbn", isbn,
		"outcome", outcome.String(),
		"phase", phase.String(),
		"error", err.Error())

	return fmt.Errorf("%w: %w", breaker.ErrorForOutcome(outcome), err)
}
