package web

import "embed"

// Templates holds the portal's layout, partial and page templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the stylesheet and other static assets served under /static.
//
//go:embed static
var Static embed.FS
