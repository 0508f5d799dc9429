package script

import _ "embed"

// bootstrapSource is the fixed reflector-layer program. It is authored once
// and executed exactly once per Bridge, between exporting the host
// functions and running the first user script.
//
//go:embed bootstrap.js
var bootstrapSource string

// bootstrapName identifies the bootstrap in stack traces and fault logs.
const bootstrapName = "bootstrap.js"
