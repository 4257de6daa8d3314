// Package search keeps the dashboard's search term in sync with the URL.
package search

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/invoice-dashboard/internal/debounce"
)

const (
	ParamQuery = "query"
	ParamPage  = "page"
)

// Navigator replaces the current location without pushing a history entry.
type Navigator interface {
	Replace(location string)
}

// Box is a search input bound to a page. Keystrokes go through a debounce
// dispatcher; each firing rewrites the query parameters and replaces the URL.
type Box struct {
	pathname string
	nav      Navigator

	mu     sync.Mutex
	params url.Values

	dispatcher *debounce.Dispatcher[string]
}

// NewBox creates a search box for pathname seeded with the current query
// parameters. opts are passed to the underlying dispatcher.
func NewBox(pathname string, current url.Values, nav Navigator, delay time.Duration, opts ...debounce.Option) *Box {
	b := &Box{
		pathname: pathname,
		nav:      nav,
		params:   cloneValues(current),
	}
	b.dispatcher = debounce.New(b.apply, delay, opts...)
	return b
}

// DefaultValue is the text the input starts with.
func (b *Box) DefaultValue() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params.Get(ParamQuery)
}

// HandleChange is the input's change handler.
func (b *Box) HandleChange(term string) {
	b.dispatcher.Call(term)
}

// Close drops any pending update.
func (b *Box) Close() {
	b.dispatcher.Cancel()
}

func (b *Box) apply(term string) {
	b.mu.Lock()
	b.params.Set(ParamPage, "1")
	if term != "" {
		b.params.Set(ParamQuery, term)
	} else {
		b.params.Del(ParamQuery)
	}
	location := b.pathname + "?" + b.params.Encode()
	b.mu.Unlock()

	b.nav.Replace(location)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// ParseParams reads the search term and 1-based page number written by Box.
// Missing or malformed pages read as 1.
func ParseParams(v url.Values) (query string, page int) {
	query = strings.TrimSpace(v.Get(ParamQuery))
	page, err := strconv.Atoi(v.Get(ParamPage))
	if err != nil || page < 1 {
		page = 1
	}
	return query, page
}
