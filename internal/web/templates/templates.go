// Package templates renders the PropScrub pages and HTMX fragments as templ
// components. Edit the .templ files and run templ generate.
package templates

import (
	"fmt"

	"github.com/JonMunkholm/propscrub/internal/core"
)

// IndexParams feeds the single-page app shell.
type IndexParams struct {
	Capabilities core.Capabilities
	Balance      *core.BalanceInfo
	MaxFileSize  int64
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// pageCount is the number of result pages, at least one.
func pageCount(res *core.Results) int {
	if res.PageSize <= 0 {
		return 1
	}
	return max(1, (res.Stats.Showing+res.PageSize-1)/res.PageSize)
}
