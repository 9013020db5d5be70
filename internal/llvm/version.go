// Package llvm models LLVM/Clang release versions and the source archives
// that each release ships. The archive layout encodes upstream packaging
// conventions that changed several times between 2.6 and 3.5, so everything
// here is a pure function of the version and the host platform.
package llvm

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsupportedVersion is returned by Parse for any input that is not a
// well-formed, supported LLVM version. No finer reason is distinguished.
var ErrUnsupportedVersion = errors.New("unsupported LLVM version")

// Version is an immutable LLVM release version. The revision component is
// optional: releases up to and including 3.4 have none, 3.4.1 and later
// always have one.
type Version struct {
	Major    int
	Minor    int
	Revision int

	hasRevision bool
}

// New returns a two-component version such as 3.4.
func New(major, minor int) Version {
	return Version{Major: major, Minor: minor}
}

// NewWithRevision returns a three-component version such as 3.4.1.
func NewWithRevision(major, minor, revision int) Version {
	return Version{Major: major, Minor: minor, Revision: revision, hasRevision: true}
}

// Parse parses a dotted version string.
//
// Accepted inputs have exactly two or three non-negative integer components.
// The minimum supported release is 2.6 (the first with a clang tarball).
// Three-component forms are only valid from 3.4.1 onward, where upstream
// started issuing revision releases; two-component forms are invalid after
// 3.4, where the revision became mandatory.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, ErrUnsupportedVersion
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, ErrUnsupportedVersion
		}
		nums[i] = n
	}

	major, minor := nums[0], nums[1]
	if major < 2 || (major == 2 && minor < 6) {
		return Version{}, ErrUnsupportedVersion
	}
	if len(nums) == 3 {
		v := NewWithRevision(major, minor, nums[2])
		if v.Compare(NewWithRevision(3, 4, 1)) < 0 {
			return Version{}, ErrUnsupportedVersion
		}
		return v, nil
	}
	v := New(major, minor)
	if v.Compare(New(3, 4)) > 0 {
		return Version{}, ErrUnsupportedVersion
	}
	return v, nil
}

// MustParse is Parse for inputs known to be valid. It panics otherwise.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic("llvm: MustParse(" + strconv.Quote(s) + ")")
	}
	return v
}

// HasRevision reports whether the version carries a revision component.
func (v Version) HasRevision() bool {
	return v.hasRevision
}

// String returns the canonical form: "major.minor" when the revision is
// absent, "major.minor.revision" otherwise.
func (v Version) String() string {
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	if v.hasRevision {
		s += "." + strconv.Itoa(v.Revision)
	}
	return s
}

// Compare orders versions by major, minor, then revision. An absent
// revision sorts below any present one, so 3.4 < 3.4.1.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return cmpInt(v.Major, o.Major)
	}
	if v.Minor != o.Minor {
		return cmpInt(v.Minor, o.Minor)
	}
	return cmpInt(v.revisionOrdinal(), o.revisionOrdinal())
}

func (v Version) revisionOrdinal() int {
	if !v.hasRevision {
		return -1
	}
	return v.Revision
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Extension returns the file extension of this release's source tarballs.
// Upstream changed the naming scheme three times:
//
//	2.7 – 2.9          .tgz
//	2.6 and 3.0        .tar.gz
//	3.1 – 3.4.x        .src.tar.gz
//	3.5.0 and later    .src.tar.xz
func (v Version) Extension() string {
	switch {
	case v.Major == 2 && v.Minor > 6:
		return ".tgz"
	case (v.Major == 2 && v.Minor == 6) || (v.Major == 3 && v.Minor == 0):
		return ".tar.gz"
	case v.Major == 3 && v.Minor < 5:
		return ".src.tar.gz"
	}
	return ".src.tar.xz"
}
