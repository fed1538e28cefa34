package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// Store 负责管理唯一缓存槽的读写。磁盘布局只有一个文件：
//
//	<CachePath>    # 上游返回的原始 JSON 正文
//
// 文件的 ModTime/Size 由文件系统提供，不额外持久化元数据。
type Store interface {
	// Stat 返回缓存槽的文件信息。若不存在则返回 ErrNotFound。
	Stat(ctx context.Context) (Entry, error)

	// Get 返回一个可流式读取的缓存槽。若不存在则返回 ErrNotFound。
	Get(ctx context.Context) (*ReadResult, error)

	// Put 将上游正文写入缓存槽，并产出新的 Entry 描述。实现需通过临时文件 + rename
	// 保证写入原子性，并在失败时清理临时文件。可选地根据 opts.ModTime 设置文件时间戳。
	Put(ctx context.Context, body io.Reader, opts PutOptions) (*Entry, error)
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Entry 表示缓存槽当前状态，包含绝对文件路径及文件信息。
type Entry struct {
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"modified_at"`
}

// ReadResult 组合 Entry 与正文 Reader，便于代理层直接将 Body 流式返回。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存槽尚未创建。
var ErrNotFound = errors.New("cache entry not found")
