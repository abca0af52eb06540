package appfs

import "embed"

// FS holds assets shipped with the binary.
//go:embed migrations
var FS embed.FS
