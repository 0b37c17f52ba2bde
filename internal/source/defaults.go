package source

import "time"

// Operational defaults shared by every source unless its site demands
// otherwise.
const (
	DefaultTimezone          = "Asia/Tokyo"
	DefaultUserAgent         = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultInterRequestDelay = 1500 * time.Millisecond
	DefaultMaxItems          = 20
	DefaultDaysBack          = 7
)
