//go:build linux || darwin

package xattr

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// getAttr returns nil and no error when the attribute is absent.
func getAttr(path, name string) ([]byte, error) {
	for {
		size, err := unix.Getxattr(path, name, nil)
		if isMissingAttr(err) {
			return nil, nil
		}
		if err != nil {
			return nil, attrError("read", path, err)
		}
		buf := make([]byte, size)
		if size == 0 {
			return buf, nil
		}
		n, err := unix.Getxattr(path, name, buf)
		if errors.Is(err, unix.ERANGE) {
			continue
		}
		if isMissingAttr(err) {
			return nil, nil
		}
		if err != nil {
			return nil, attrError("read", path, err)
		}
		return buf[:n], nil
	}
}

func setAttr(path, name string, value []byte) error {
	if err := unix.Setxattr(path, name, value, 0); err != nil {
		return attrError("write", path, err)
	}
	return nil
}

func attrError(op, path string, err error) error {
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
		return fmt.Errorf("%s xattr %s: %w: %w", op, path, ErrUnsupported, err)
	}
	return fmt.Errorf("%s xattr %s: %w", op, path, err)
}
