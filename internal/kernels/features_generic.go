//go:build !amd64 && !arm64

package kernels

// Features returns nil on platforms without feature detection
func Features() []string {
	return nil
}
