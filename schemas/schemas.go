// Package schemas carries the JSON Schema documents the HTTP API
// validates request bodies against.
package schemas

import _ "embed"

//go:embed initial_conditions.schema.json
var InitialConditions string
