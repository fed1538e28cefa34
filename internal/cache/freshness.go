package cache

import "time"

// Freshness 根据固定窗口判断缓存槽是否仍可直接复用。
type Freshness struct {
	window time.Duration
	now    func() time.Time
}

// NewFreshness 构造新鲜度判断器；now 为空时使用 time.Now。
func NewFreshness(window time.Duration, now func() time.Time) Freshness {
	if now == nil {
		now = time.Now
	}
	return Freshness{window: window, now: now}
}

// Window 返回配置的新鲜度窗口。
func (f Freshness) Window() time.Duration {
	return f.window
}

// Now 返回判断器使用的当前时间。
func (f Freshness) Now() time.Time {
	return f.now()
}

// Cutoff 返回 now - window，ModTime 严格早于该时刻即视为过期。
func (f Freshness) Cutoff() time.Time {
	return f.now().Add(-f.window)
}

// IsFresh 判断条目是否仍在窗口之内；恰好等于 cutoff 的条目仍然新鲜。
func (f Freshness) IsFresh(entry Entry) bool {
	return !entry.ModTime.Before(f.Cutoff())
}

// Age 返回条目相对当前时间的年龄。
func (f Freshness) Age(entry Entry) time.Duration {
	return f.now().Sub(entry.ModTime)
}
