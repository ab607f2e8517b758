//go:build !windows

package exporter

func isSharingViolation(error) bool {
	return false
}
