package llvm

// Role identifies one of the logical source archives a release may ship.
type Role string

const (
	RoleCore     Role = "core"             // LLVM itself
	RoleFrontend Role = "frontend"         // clang / cfe
	RoleRuntime  Role = "runtime"          // compiler-rt
	RoleStdlib   Role = "standard-library" // libc++
)

// stageKey is the directory prefix each role unpacks into before the
// non-core trees are relocated under the core tree.
func (r Role) stageKey() string {
	switch r {
	case RoleCore:
		return "llvm"
	case RoleFrontend:
		return "clang"
	case RoleRuntime:
		return "compiler-rt"
	case RoleStdlib:
		return "libcxx"
	}
	return string(r)
}

// Archive describes one source tarball of a release: where to get it, what
// the file is called, and where its tree belongs in the staging layout.
type Archive struct {
	Role     Role
	Name     string // tarball base name, e.g. "llvm" or "cfe"
	Filename string // e.g. "cfe-3.5.0.src.tar.xz"
	URL      string
	StageDir string // directory the tarball is unpacked into, e.g. "clang-src"
	Subpath  string // relocation target inside the core tree; empty for core
}

// SourceSet is the full set of archives required to build one version on
// one host platform, in declaration order (core first).
type SourceSet struct {
	Version  Version
	Archives []Archive
}

// Core returns the core archive. Every supported version has one.
func (s SourceSet) Core() Archive {
	for _, a := range s.Archives {
		if a.Role == RoleCore {
			return a
		}
	}
	return Archive{}
}

// Role returns the archive for a role and whether it is present on this
// version/platform combination.
func (s SourceSet) Role(r Role) (Archive, bool) {
	for _, a := range s.Archives {
		if a.Role == r {
			return a, true
		}
	}
	return Archive{}, false
}

// The archive rules form an ordered table; for each role the first entry
// whose version range and host filter match wins. This keeps a decade of
// packaging exceptions auditable in one place:
//
//   - the frontend tarball is "clang" through 3.2, "cfe" for 3.3, back to
//     "clang" for the bare 3.4 release, then "cfe" from 3.4.1 on
//   - compiler-rt exists from 3.1 and is only built off-Windows
//   - libc++ exists from 3.3 and is only built on macOS
type archiveRule struct {
	role Role
	name string
	from Version
	to   Version // zero value means no upper bound
	host func(goos string) bool
}

func (r archiveRule) matches(v Version, goos string) bool {
	if v.Compare(r.from) < 0 {
		return false
	}
	if r.to != (Version{}) && v.Compare(r.to) > 0 {
		return false
	}
	if r.host != nil && !r.host(goos) {
		return false
	}
	return true
}

func notWindows(goos string) bool { return goos != "windows" }
func onlyDarwin(goos string) bool { return goos == "darwin" }

var archiveRules = []archiveRule{
	{role: RoleCore, name: "llvm", from: New(2, 6)},
	{role: RoleFrontend, name: "clang", from: New(2, 6), to: New(3, 2)},
	{role: RoleFrontend, name: "cfe", from: New(3, 3), to: New(3, 3)},
	{role: RoleFrontend, name: "clang", from: New(3, 4), to: New(3, 4)},
	{role: RoleFrontend, name: "cfe", from: NewWithRevision(3, 4, 1)},
	{role: RoleRuntime, name: "compiler-rt", from: New(3, 1), host: notWindows},
	{role: RoleStdlib, name: "libcxx", from: New(3, 3), host: onlyDarwin},
}

// relocation subpaths inside the core tree, per role
var subpaths = map[Role]string{
	RoleFrontend: "tools/clang",
	RoleRuntime:  "projects/compiler-rt",
	RoleStdlib:   "projects/libcxx",
}

var roleOrder = []Role{RoleCore, RoleFrontend, RoleRuntime, RoleStdlib}

// Sources derives the archive set for a version on a host platform. It is a
// pure function of its inputs and is the single source of truth for both
// download planning and cleanup.
func Sources(v Version, goos, baseURL string) SourceSet {
	set := SourceSet{Version: v}
	for _, role := range roleOrder {
		for _, rule := range archiveRules {
			if rule.role != role || !rule.matches(v, goos) {
				continue
			}
			tag := v.tagFor(role)
			filename := rule.name + "-" + tag + v.Extension()
			set.Archives = append(set.Archives, Archive{
				Role:     role,
				Name:     rule.name,
				Filename: filename,
				URL:      baseURL + "/" + tag + "/" + filename,
				StageDir: role.stageKey() + "-src",
				Subpath:  subpaths[role],
			})
			break
		}
	}
	return set
}

// tagFor returns the version string used in a role's filename and URL. For
// the 3.4.1 and 3.4.2 releases the compiler-rt and libc++ tarballs were
// never re-versioned and still carry the plain 3.4 tag.
func (v Version) tagFor(role Role) string {
	if v.hasRevision && v.Major == 3 && v.Minor == 4 {
		if role == RoleRuntime || role == RoleStdlib {
			return New(3, 4).String()
		}
	}
	return v.String()
}
