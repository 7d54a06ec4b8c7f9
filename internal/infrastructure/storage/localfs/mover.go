package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

type CollisionPolicy string

const (
	CollisionRename    CollisionPolicy = "rename"
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionFail      CollisionPolicy = "fail"
)

const (
	maxCollisionSuffix = 1000
	dirMode            = 0o755
)

func ParseCollisionPolicy(raw string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return CollisionRename, nil
	case CollisionRename, CollisionOverwrite, CollisionFail:
		return p, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse collision policy", fmt.Errorf("unknown policy %q", raw))
	}
}

// Mover relocates files between directories of the local filesystem.
// With the rename and fail policies an existing destination is never replaced.
type Mover struct {
	policy CollisionPolicy
	logger *slog.Logger
}

func NewMover(policy CollisionPolicy, logger *slog.Logger) *Mover {
	if policy == "" {
		policy = CollisionRename
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{policy: policy, logger: logger}
}

// EnsureDir creates dir and its parents. An existing directory is not an error.
func (m *Mover) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Move places source inside destinationDir keeping its base name and returns
// the resulting path. A file that already sits in destinationDir is returned
// unchanged. Once started a move is not interrupted by ctx.
func (m *Mover) Move(ctx context.Context, source, destinationDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "move", err)
	}

	info, err := os.Lstat(source)
	if err != nil {
		return "", domain.NewMoveError(domain.ErrSourceVanished, source, destinationDir, err)
	}
	if !info.Mode().IsRegular() {
		// a symlink, socket or directory now occupies the path; the regular file is gone
		return "", domain.NewMoveError(domain.ErrSourceVanished, source, destinationDir,
			fmt.Errorf("no regular file at source (found %s)", info.Mode().Type()))
	}

	if err := m.EnsureDir(destinationDir); err != nil {
		return "", domain.NewMoveError(domain.ErrDestinationUnwritable, source, destinationDir, err)
	}

	if sameDir(filepath.Dir(source), destinationDir) {
		return source, nil
	}

	base := filepath.Base(source)
	if m.policy == CollisionOverwrite {
		target := filepath.Join(destinationDir, base)
		if err := replace(source, target, info.Mode().Perm()); err != nil {
			return "", moveFailure(source, target, err)
		}
		return target, nil
	}

	for i := 0; i < maxCollisionSuffix; i++ {
		target := filepath.Join(destinationDir, candidateName(base, i))
		err := placeExclusive(source, target, info.Mode().Perm())
		if err == nil {
			if i > 0 {
				m.logger.Info("name_collision_renamed", "path", source, "destination", target)
			}
			return target, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", moveFailure(source, target, err)
		}
		if m.policy == CollisionFail {
			return "", domain.NewMoveError(domain.ErrNameCollision, source, target, err)
		}
	}
	return "", domain.NewMoveError(domain.ErrNameCollision, source, destinationDir,
		fmt.Errorf("no free name after %d attempts", maxCollisionSuffix))
}

// candidateName returns base for n == 0 and "stem (n).ext" otherwise.
func candidateName(base string, n int) string {
	if n == 0 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// placeExclusive moves source to target failing with fs.ErrExist when target
// is taken. A hard link claims the name atomically; filesystems that cannot
// link fall back to copying.
func placeExclusive(source, target string, perm fs.FileMode) error {
	err := os.Link(source, target)
	switch {
	case err == nil:
		return dropSource(source, target)
	case errors.Is(err, fs.ErrExist):
		return err
	case linkUnsupported(err):
		return copyInto(source, target, perm, false)
	default:
		return err
	}
}

func replace(source, target string, perm fs.FileMode) error {
	err := os.Rename(source, target)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyInto(source, target, perm, true)
}

// copyInto writes a synced temporary copy next to target, publishes it under
// target and removes source.
func copyInto(source, target string, perm fs.FileMode, overwrite bool) error {
	tmpPath, err := copyToTemp(source, filepath.Dir(target), perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if overwrite {
		err = os.Rename(tmpPath, target)
	} else {
		err = publishExclusive(tmpPath, target)
	}
	if err != nil {
		return err
	}
	return dropSource(source, target)
}

// dropSource removes source once target holds the content. If source cannot
// be removed target is withdrawn so the file stays at its original location.
func dropSource(source, target string) error {
	err := os.Remove(source)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	_ = os.Remove(target)
	return err
}

func copyToTemp(source, dir string, perm fs.FileMode) (string, error) {
	src, err := os.Open(source)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, ".organizer-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	_, err = io.Copy(tmp, src)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, perm)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

func publishExclusive(tmpPath, target string) error {
	err := os.Link(tmpPath, target)
	if err == nil || !linkUnsupported(err) {
		return err
	}
	reserved, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	_ = reserved.Close()
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(target)
		return err
	}
	return nil
}

func linkUnsupported(err error) bool {
	return errors.Is(err, syscall.EXDEV) ||
		errors.Is(err, syscall.EPERM) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.EMLINK)
}

func moveFailure(source, target string, err error) error {
	if errors.Is(err, fs.ErrExist) {
		return domain.NewMoveError(domain.ErrNameCollision, source, target, err)
	}
	if _, statErr := os.Lstat(source); errors.Is(statErr, fs.ErrNotExist) {
		return domain.NewMoveError(domain.ErrSourceVanished, source, target, err)
	}
	return domain.NewMoveError(domain.ErrDestinationUnwritable, source, target, err)
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
