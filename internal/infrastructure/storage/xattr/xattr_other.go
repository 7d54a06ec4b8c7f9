//go:build !linux && !darwin

package xattr

import "fmt"

func getAttr(path, _ string) ([]byte, error) {
	return nil, fmt.Errorf("read xattr %s: %w", path, ErrUnsupported)
}

func setAttr(path, _ string, _ []byte) error {
	return fmt.Errorf("write xattr %s: %w", path, ErrUnsupported)
}
