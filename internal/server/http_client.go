package server

import (
	"net"
	"net/http"
	"time"

	"github.com/aircache/aircache/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          10,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewUpstreamClient 返回用于拉取上游文档的 http.Client，Timeout 覆盖连接到读完正文的全过程。
func NewUpstreamClient(cfg *config.Config) *http.Client {
	timeout := config.DefaultUpstreamTimeout
	if cfg != nil && cfg.Slot.UpstreamTimeout.DurationValue() > 0 {
		timeout = cfg.Slot.UpstreamTimeout.DurationValue()
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: defaultTransport.Clone(),
	}
}
