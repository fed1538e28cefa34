package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/aircache/aircache/internal/version"
)

// maxDrainBytes 限制非 200 响应时丢弃正文的读取量，保证连接可复用又不被大包拖住。
const maxDrainBytes = 64 * 1024

// fetchDocument 拉取上游文档并校验其为合法 JSON，返回原始字节，不做任何重编码。
func (f *Fetcher) fetchDocument(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.upstream, nil)
	if err != nil {
		return nil, &RefreshError{Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RefreshError{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		return nil, &RefreshError{Kind: FailureStatus, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RefreshError{Kind: FailureNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	// 只验证可解析，不做 schema 检查。
	if !json.Valid(body) {
		return nil, &RefreshError{Kind: FailureInvalidBody, StatusCode: resp.StatusCode, Err: ErrInvalidDocument}
	}
	return body, nil
}
