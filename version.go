package bayesicfitting

import _ "embed"

// Version is the release of the library and the command line.
//
//go:embed VERSION
var Version string
