// Package schemas embeds the JSON schemas used for validation.
package schemas

import _ "embed"

// BuildSpecSchema is the structural schema every build-instruction document
// must satisfy before a build project is planned for it.
//
//go:embed buildspec.schema.json
var BuildSpecSchema []byte
