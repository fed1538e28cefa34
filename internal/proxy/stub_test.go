package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aircache/aircache/internal/cache"
)

// upstreamStub 模拟上游 data.json，记录命中次数并允许动态切换响应。
type upstreamStub struct {
	*httptest.Server

	hits atomic.Int32

	mu     sync.Mutex
	status int
	body   string
	delay  time.Duration
	gate   chan struct{}
}

func newUpstreamStub(t *testing.T, status int, body string) *upstreamStub {
	t.Helper()

	stub := &upstreamStub{status: status, body: body}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.hits.Add(1)

		stub.mu.Lock()
		status, body, delay, gate := stub.status, stub.body, stub.delay, stub.gate
		stub.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(stub.Close)
	return stub
}

func (s *upstreamStub) respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

func (s *upstreamStub) setDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}

// hold 让后续请求阻塞，直到返回的 release 被调用。
func (s *upstreamStub) hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *upstreamStub) hitCount() int {
	return int(s.hits.Load())
}

type fetcherFixture struct {
	fetcher   *Fetcher
	store     cache.Store
	cachePath string
	upstream  *upstreamStub
}

func newFetcherFixture(t *testing.T, upstream *upstreamStub, timeout time.Duration) *fetcherFixture {
	t.Helper()

	cachePath := filepath.Join(t.TempDir(), "cache.data.json")
	store, err := cache.NewStore(cachePath)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if timeout == 0 {
		timeout = 30 * time.Second
	}
	fetcher, err := NewFetcher(FetcherOptions{
		Client:          &http.Client{Timeout: timeout},
		Logger:          logger,
		Store:           store,
		Route:           "/purpleair_cache.data.json",
		Upstream:        upstream.URL + "/data.json",
		CachePath:       cachePath,
		FreshnessWindow: 60 * time.Minute,
	})
	if err != nil {
		t.Fatalf("fetcher error: %v", err)
	}

	return &fetcherFixture{
		fetcher:   fetcher,
		store:     store,
		cachePath: cachePath,
		upstream:  upstream,
	}
}

// seed 写入指定内容并把 mtime 调整为 age 之前。
func (f *fetcherFixture) seed(t *testing.T, body string, age time.Duration) {
	t.Helper()
	modTime := time.Now().Add(-age)
	if _, err := f.store.Put(context.Background(), strings.NewReader(body), cache.PutOptions{ModTime: modTime}); err != nil {
		t.Fatalf("seed error: %v", err)
	}
}

func (f *fetcherFixture) slotContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.cachePath)
	if err != nil {
		t.Fatalf("read slot error: %v", err)
	}
	return string(data)
}

// rebuild 以替换后的存储与日志重新构造 Fetcher，其余选项与夹具一致。
func (f *fetcherFixture) rebuild(t *testing.T, store cache.Store, logger *logrus.Logger) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(FetcherOptions{
		Client:          &http.Client{Timeout: 30 * time.Second},
		Logger:          logger,
		Store:           store,
		Route:           "/purpleair_cache.data.json",
		Upstream:        f.upstream.URL + "/data.json",
		CachePath:       f.cachePath,
		FreshnessWindow: 60 * time.Minute,
	})
	if err != nil {
		t.Fatalf("fetcher error: %v", err)
	}
	return fetcher
}

// readOnlyStore 读取正常透传，写入一律失败，模拟磁盘写满。
type readOnlyStore struct {
	cache.Store
	puts atomic.Int32
}

func (s *readOnlyStore) Put(context.Context, io.Reader, cache.PutOptions) (*cache.Entry, error) {
	s.puts.Add(1)
	return nil, errors.New("disk full")
}

func jsonLogger(buf *bytes.Buffer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(buf)
	return logger
}
