package scrape

import (
	"math/rand"
	"net/http"
)

// userAgents is the rotation pool. Marketplaces fingerprint the User-Agent,
// so each request presents a different real browser string.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// browserHeaders returns a browser-like header set with a user agent drawn
// from the rotation pool. The rng is caller-owned; callers must not share one
// rng across goroutines.
func browserHeaders(rng *rand.Rand) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgents[rng.Intn(len(userAgents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("DNT", "1")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}
