// Package atomicfile publishes new file content so that readers observe either
// the previous content or the new content, never a partial write or a missing
// file, while rotating the previous content into a backup slot.
package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// StagingSuffix names the scratch file used while refreshing a backup slot on
// platforms without an atomic exchange.
const StagingSuffix = ".tmp"

// errExchangeUnsupported reports that the platform or filesystem cannot swap
// two paths in one step.
var errExchangeUnsupported = errors.New("atomicfile: exchange not supported")

// WriteFile writes data to path, flushing it to stable storage before
// returning. The file is removed on failure (best effort).
func WriteFile(path string, data []byte, perm fs.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("atomicfile: create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("atomicfile: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("atomicfile: sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("atomicfile: close %s: %w", path, err)
	}
	return nil
}

// Replace promotes temp to primary. When primary already exists its previous
// content ends up in backup; when it does not, temp is simply renamed and no
// backup is produced. A symlinked primary is resolved first so the link
// itself survives the rotation.
func Replace(temp, primary, backup string) error {
	target, exists, err := ResolveTarget(primary)
	if err != nil {
		return err
	}

	if !exists {
		if err := os.Rename(temp, target); err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("atomicfile: promote %s: %w", temp, err)
		}
		syncDir(filepath.Dir(target))
		return nil
	}

	err = exchange(temp, target)
	switch {
	case err == nil:
		// temp now holds the previous primary content. An overlapping
		// Replace on the same paths can exchange it back into target.
		if err := os.Rename(temp, backup); err != nil {
			return fmt.Errorf("atomicfile: rotate backup %s: %w", backup, err)
		}
		syncDir(filepath.Dir(target))
		return nil
	case errors.Is(err, errExchangeUnsupported):
		return replaceByLink(temp, target, backup)
	default:
		_ = os.Remove(temp)
		return fmt.Errorf("atomicfile: exchange %s: %w", target, err)
	}
}

// replaceByLink refreshes backup from the current primary, then renames temp
// over primary. Each rename is atomic, so primary is never missing.
func replaceByLink(temp, target, backup string) error {
	staging := backup + StagingSuffix
	_ = os.Remove(staging)

	if err := os.Link(target, staging); err != nil {
		if err := Copy(target, staging); err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("atomicfile: stage backup %s: %w", backup, err)
		}
	}
	if err := os.Rename(staging, backup); err != nil {
		_ = os.Remove(staging)
		_ = os.Remove(temp)
		return fmt.Errorf("atomicfile: rotate backup %s: %w", backup, err)
	}
	if err := os.Rename(temp, target); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("atomicfile: replace %s: %w", target, err)
	}
	syncDir(filepath.Dir(target))
	return nil
}

// Restore moves backup into the primary slot, consuming the backup. An
// existing primary is replaced atomically.
func Restore(backup, primary string) error {
	target, _, err := ResolveTarget(primary)
	if err != nil {
		return err
	}
	if err := os.Rename(backup, target); err != nil {
		return fmt.Errorf("atomicfile: restore %s: %w", backup, err)
	}
	syncDir(filepath.Dir(target))
	return nil
}

// ResolveTarget follows primary when it is a symbolic link and reports
// whether the resolved file exists.
func ResolveTarget(primary string) (string, bool, error) {
	info, err := os.Lstat(primary)
	if errors.Is(err, fs.ErrNotExist) {
		return primary, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("atomicfile: stat %s: %w", primary, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return primary, true, nil
	}

	target, err := filepath.EvalSymlinks(primary)
	if errors.Is(err, fs.ErrNotExist) {
		// Dangling link: write through to where it points.
		dest, readErr := os.Readlink(primary)
		if readErr != nil {
			return "", false, fmt.Errorf("atomicfile: readlink %s: %w", primary, readErr)
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(primary), dest)
		}
		return dest, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("atomicfile: resolve %s: %w", primary, err)
	}
	return target, true, nil
}

// Copy duplicates src into dst, overwriting dst.
func Copy(src, dst string) error {
	return copyFile(src, dst, os.O_TRUNC)
}

// CopyNew is Copy that fails with fs.ErrExist instead of replacing dst.
func CopyNew(src, dst string) error {
	return copyFile(src, dst, os.O_EXCL)
}

func copyFile(src, dst string, flag int) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("atomicfile: open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("atomicfile: stat %s: %w", src, err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|flag, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("atomicfile: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("atomicfile: copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("atomicfile: sync %s: %w", dst, err)
	}
	return out.Close()
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
