//go:build pachinkodebug

package pachinko

import "fmt"

const debugAssertions = true

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("pachinko: invariant violated: "+format, args...))
	}
}
