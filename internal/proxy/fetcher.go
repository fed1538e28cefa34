package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/aircache/aircache/internal/cache"
	"github.com/aircache/aircache/internal/logging"
)

// Outcome 表示单次请求中新鲜度检查与刷新的结果。
type Outcome string

const (
	// OutcomeFresh 缓存槽仍在窗口内，未访问上游。
	OutcomeFresh Outcome = "fresh"
	// OutcomeRefreshed 上游拉取、校验、写入均成功。
	OutcomeRefreshed Outcome = "refreshed"
	// OutcomeFailed 刷新失败，缓存槽保持原样。
	OutcomeFailed Outcome = "failed"
)

// RefreshResult 汇总 RefreshIfStale 的结果。Err 仅在 OutcomeFailed 时非空。
// Shared 表示结果来自其它请求发起的同一次刷新。
type RefreshResult struct {
	Outcome Outcome
	Err     error
	Shared  bool
}

// FetcherOptions 注入 Fetcher 的全部依赖，取代全局常量。
type FetcherOptions struct {
	Client          *http.Client
	Logger          *logrus.Logger
	Store           cache.Store
	Route           string
	Upstream        string
	CachePath       string
	FreshnessWindow time.Duration
	// Now 可选，测试中用于注入时钟。
	Now func() time.Time
}

// Fetcher 负责“新鲜度检查 → 条件刷新 → 读取缓存槽”的流程。
// 同一时刻每个缓存槽至多有一次进行中的刷新，并发的过期请求等待并共享其结果。
type Fetcher struct {
	client    *http.Client
	logger    *logrus.Logger
	store     cache.Store
	route     string
	upstream  string
	cachePath string
	freshness cache.Freshness
	flights   singleflight.Group
}

// NewFetcher 校验依赖并构造 Fetcher。
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.Upstream == "" {
		return nil, errors.New("upstream url is required")
	}
	if opts.FreshnessWindow <= 0 {
		return nil, fmt.Errorf("invalid freshness window: %s", opts.FreshnessWindow)
	}

	return &Fetcher{
		client:    opts.Client,
		logger:    opts.Logger,
		store:     opts.Store,
		route:     opts.Route,
		upstream:  opts.Upstream,
		cachePath: opts.CachePath,
		freshness: cache.NewFreshness(opts.FreshnessWindow, opts.Now),
	}, nil
}

// Serve 在必要时刷新缓存槽，然后打开其当前内容。刷新失败不会让 Serve 失败；
// 只有缓存槽从未存在时才返回 ErrCacheUnavailable（包装本次刷新错误）。
// 调用方负责关闭返回的 Reader。
func (f *Fetcher) Serve(ctx context.Context) (*cache.ReadResult, RefreshResult, error) {
	result := f.RefreshIfStale(ctx)

	read, err := f.store.Get(ctx)
	if err == nil {
		return read, result, nil
	}
	if errors.Is(err, cache.ErrNotFound) {
		if result.Err != nil {
			return nil, result, fmt.Errorf("%w: %w", ErrCacheUnavailable, result.Err)
		}
		return nil, result, ErrCacheUnavailable
	}
	return nil, result, fmt.Errorf("read cache slot: %w", err)
}

// RefreshIfStale 仅当缓存槽缺失或过期时尝试刷新。失败被记录日志并通过结果返回，
// 从不以 error 形式中断请求。
func (f *Fetcher) RefreshIfStale(ctx context.Context) RefreshResult {
	if f.isFresh(ctx) {
		f.logger.WithFields(f.fields("freshness_check")).Debug("cache_fresh")
		return RefreshResult{Outcome: OutcomeFresh}
	}

	// 刷新脱离入站请求的取消信号，只受 http.Client.Timeout 约束。
	flightCtx := context.WithoutCancel(ctx)
	value, _, shared := f.flights.Do(f.flightKey(), func() (interface{}, error) {
		// 排队期间前一次刷新可能已经完成。
		if f.isFresh(flightCtx) {
			return RefreshResult{Outcome: OutcomeFresh}, nil
		}
		return f.refresh(flightCtx), nil
	})

	result := value.(RefreshResult)
	result.Shared = shared
	return result
}

// Status 返回缓存槽的当前快照，供诊断接口使用。
func (f *Fetcher) Status(ctx context.Context) (SlotStatus, error) {
	status := SlotStatus{
		Route:           f.route,
		Upstream:        f.upstream,
		CachePath:       f.cachePath,
		FreshnessWindow: f.freshness.Window(),
	}

	entry, err := f.store.Stat(ctx)
	if errors.Is(err, cache.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return status, err
	}

	status.Exists = true
	status.SizeBytes = entry.SizeBytes
	status.ModifiedAt = entry.ModTime
	status.Age = f.freshness.Age(entry)
	status.Fresh = f.freshness.IsFresh(entry)
	return status, nil
}

// SlotStatus 描述缓存槽的存在性、年龄与新鲜度。
type SlotStatus struct {
	Route           string
	Upstream        string
	CachePath       string
	FreshnessWindow time.Duration
	Exists          bool
	SizeBytes       int64
	ModifiedAt      time.Time
	Age             time.Duration
	Fresh           bool
}

func (f *Fetcher) isFresh(ctx context.Context) bool {
	entry, err := f.store.Stat(ctx)
	switch {
	case err == nil:
		return f.freshness.IsFresh(entry)
	case errors.Is(err, cache.ErrNotFound):
		return false
	default:
		f.logger.WithError(err).WithFields(f.fields("freshness_check")).Warn("cache_stat_failed")
		return false
	}
}

func (f *Fetcher) refresh(ctx context.Context) RefreshResult {
	started := time.Now()
	f.logger.WithFields(f.fields("refresh")).Info("refresh_started")

	body, err := f.fetchDocument(ctx)
	if err == nil {
		if _, putErr := f.store.Put(ctx, bytes.NewReader(body), cache.PutOptions{ModTime: f.freshness.Now()}); putErr != nil {
			err = &RefreshError{Kind: FailureStore, StatusCode: http.StatusOK, Err: putErr}
		}
	}

	fields := f.fields("refresh")
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		if kind := FailureKindOf(err); kind != "" {
			fields["failure"] = string(kind)
		}
		if status := upstreamStatusOf(err); status != 0 {
			fields["upstream_status"] = status
		}
		f.logger.WithError(err).WithFields(fields).Error("refresh_failed")
		return RefreshResult{Outcome: OutcomeFailed, Err: err}
	}

	fields["size_bytes"] = len(body)
	f.logger.WithFields(fields).Info("refresh_complete")
	return RefreshResult{Outcome: OutcomeRefreshed}
}

func (f *Fetcher) fields(action string) logrus.Fields {
	fields := logging.SlotFields(f.route, f.upstream, f.cachePath)
	fields["action"] = action
	return fields
}

func (f *Fetcher) flightKey() string {
	return "slot::" + f.cachePath
}
