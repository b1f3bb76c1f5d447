// Package static embeds the browser client served under /static/.
package static

import "embed"

// FS holds the client script and stylesheet.
//
//go:embed script.js style.css
var FS embed.FS
