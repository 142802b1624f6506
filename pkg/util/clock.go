package util

import "time"

// Now 返回 UTC 当前时间，截断到微秒以匹配 Postgres timestamptz 精度
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
