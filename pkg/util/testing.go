package util

import "flag"

// IsTestMode tells whether the code is running under `go test`
func IsTestMode() bool {
	return flag.Lookup("test.v") != nil
}
