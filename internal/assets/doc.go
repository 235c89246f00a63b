// Package assets holds the CSS styles and the HTML document template used by
// the chrome engine. Everything is embedded at compile time.
//
//	styles/{name}.css        page styles (exam, compact)
//	templates/{name}.html    html/template documents (exam)
//
// Asset names are validated so a name can never escape its directory.
package assets
