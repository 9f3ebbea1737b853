package policy

import "time"

// IsQuietHours 判断 t 是否落在勿扰时段内。
// start > end 表示跨夜（如 22 → 8），判定用或逻辑；
// start < end 表示同日时段，判定用与逻辑；start == end 视为未设置。
func IsQuietHours(start, end int, t time.Time) bool {
	if start == end {
		return false
	}
	h := t.Hour()
	if start > end {
		return h >= start || h < end
	}
	return h >= start && h < end
}

// NextQuietEnd 返回 t 之后最近一次勿扰结束时刻。
// t 不在勿扰时段内时原样返回 t。
func NextQuietEnd(start, end int, t time.Time) time.Time {
	if !IsQuietHours(start, end, t) {
		return t
	}
	endToday := time.Date(t.Year(), t.Month(), t.Day(), end, 0, 0, 0, t.Location())
	if endToday.After(t) {
		return endToday
	}
	return endToday.Add(24 * time.Hour)
}
