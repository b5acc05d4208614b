package version

import "runtime"

// Set via ldflags at build time:
//
//	-X github.com/surgiscan/docproc/version.GitRelease=v0.3.0
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = runtime.Version()
)
