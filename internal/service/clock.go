package service

import "time"

// Clock cấp thời gian hiện tại cho các service, để test tiêm được thời gian
// cố định. Mặc định dùng UTC như toàn bộ hệ thống.
type Clock func() time.Time

func UTCClock() time.Time {
	return time.Now().UTC()
}
