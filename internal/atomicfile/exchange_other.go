//go:build !linux

package atomicfile

func exchange(_, _ string) error {
	return errExchangeUnsupported
}
