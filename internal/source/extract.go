package source

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Extract unpacks a release tarball into dest with its single top-level
// directory stripped, emulating `tar --strip-components=1` on hosts without
// a tar binary: the archive is fully extracted into a scratch directory and
// its top-level entry is then renamed into place.
func Extract(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	var decompressed io.Reader
	switch {
	case strings.HasSuffix(archive, ".tar.xz"):
		decompressed, err = xz.NewReader(f)
	case strings.HasSuffix(archive, ".tar.gz") || strings.HasSuffix(archive, ".tgz"):
		var gz *gzip.Reader
		gz, err = gzip.NewReader(f)
		if gz != nil {
			defer gz.Close()
			decompressed = gz
		}
	default:
		return fmt.Errorf("unrecognized archive format: %s", filepath.Base(archive))
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(archive), err)
	}

	scratch, err := os.MkdirTemp(filepath.Dir(dest), "extract-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	top, err := untar(tar.NewReader(decompressed), scratch)
	if err != nil {
		return err
	}
	if top == "" {
		return fmt.Errorf("%s has no top-level directory", filepath.Base(archive))
	}
	return os.Rename(filepath.Join(scratch, top), dest)
}

// untar extracts all entries under root and returns the archive's top-level
// directory name.
func untar(tr *tar.Reader, root string) (top string, err error) {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read archive: %w", err)
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if name == "." || name == "" {
			continue
		}
		if top == "" {
			top = topComponent(name)
		}

		target := filepath.Join(root, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(root)+string(os.PathSeparator)) {
			return "", fmt.Errorf("illegal path in archive: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", err
			}
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !errors.Is(err, os.ErrExist) {
				return "", err
			}
		case tar.TypeXGlobalHeader:
			// metadata only
		default:
			return "", fmt.Errorf("unsupported archive entry %q", hdr.Name)
		}
	}
	return top, nil
}

func topComponent(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
