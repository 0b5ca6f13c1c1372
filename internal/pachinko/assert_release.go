//go:build !pachinkodebug

package pachinko

const debugAssertions = false

func assertf(bool, string, ...any) {}
