// Package templates embeds the HTML views rendered by the view package and
// by Fiber.
package templates

import "embed"

//go:embed *.html layouts/*.html partials/*.html
var FS embed.FS
