package xattr

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isMissingAttr(err error) bool {
	return errors.Is(err, unix.ENODATA)
}
