// Package scrape fetches marketplace search pages and extracts normalized
// product listings from them. It fans requests out across categories,
// keywords, and marketplaces, tolerating individual failures; a task that
// fails contributes zero listings and never aborts the batch.
package scrape
