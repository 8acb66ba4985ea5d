package scrape

import "strings"

// absolutizeLink resolves an extracted href against the marketplace origin.
// Protocol-relative hrefs keep their host, root-relative hrefs get the origin
// prepended, and absolute URLs pass through unchanged.
func absolutizeLink(href, origin string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	default:
		return origin + href
	}
}
