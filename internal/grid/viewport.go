package grid

import (
	"net/http"
	"strconv"
	"strings"
)

// Viewport is the class of screen a grid is rendered for.
type Viewport string

const (
	ViewportDesktop Viewport = "desktop"
	ViewportMobile  Viewport = "mobile"
)

// Layout is the arrangement used for a viewport.
type Layout string

const (
	LayoutTable   Layout = "table"
	LayoutStacked Layout = "stacked"
)

// DefaultBreakpoint is the width below which the stacked layout is used.
const DefaultBreakpoint = 768

// Layout picks the table for desktops and the stacked day list for phones.
func (v Viewport) Layout() Layout {
	if v == ViewportMobile {
		return LayoutStacked
	}
	return LayoutTable
}

// ParseViewport accepts "desktop" and "mobile".
func ParseViewport(raw string) (Viewport, bool) {
	switch Viewport(strings.ToLower(strings.TrimSpace(raw))) {
	case ViewportDesktop:
		return ViewportDesktop, true
	case ViewportMobile:
		return ViewportMobile, true
	}
	return "", false
}

// ForWidth classifies a width in CSS pixels.
func ForWidth(width, breakpoint int) Viewport {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	if width > 0 && width < breakpoint {
		return ViewportMobile
	}
	return ViewportDesktop
}

// ViewportFromRequest derives the viewport class from, in order, the "view"
// query parameter, the Sec-CH-UA-Mobile client hint and a width hint taken
// from the "width" parameter or the Sec-CH-Viewport-Width header.
func ViewportFromRequest(r *http.Request, breakpoint int) Viewport {
	if r == nil {
		return ViewportDesktop
	}
	q := r.URL.Query()
	if v, ok := ParseViewport(q.Get("view")); ok {
		return v
	}
	switch strings.TrimSpace(r.Header.Get("Sec-CH-UA-Mobile")) {
	case "?1":
		return ViewportMobile
	case "?0":
		return ViewportDesktop
	}
	for _, raw := range []string{q.Get("width"), r.Header.Get("Sec-CH-Viewport-Width"), r.Header.Get("Viewport-Width")} {
		if width, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && width > 0 {
			return ForWidth(width, breakpoint)
		}
	}
	return ViewportDesktop
}
