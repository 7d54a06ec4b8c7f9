package xattr

import "errors"

var ErrUnsupported = errors.New("extended attributes not supported")
