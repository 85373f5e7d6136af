// Package appfs embeds the files shipped inside the binaries: SQL migrations, email templates
// and static assets.
package appfs

import "embed"

//go:embed assets migrations all:templates
var FS embed.FS
