// Package schemas holds the JSON Schemas for records exchanged with the browser extension.
package schemas

import _ "embed"

// Profile is the JSON Schema for a profile record.
//
//go:embed profile.schema.json
var Profile []byte
