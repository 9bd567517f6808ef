package thumbnail

import (
	"fmt"
	"strconv"
)

// FormatViews abbreviates a view count: 1500 -> "1.5K", 2300000 -> "2.3M".
func FormatViews(views int64) string {
	switch {
	case views >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(views)/1_000_000_000)
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	default:
		return strconv.FormatInt(views, 10)
	}
}
