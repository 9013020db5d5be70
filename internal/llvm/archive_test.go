package llvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://llvm.org/releases"

func roles(set SourceSet) []Role {
	var out []Role
	for _, a := range set.Archives {
		out = append(out, a.Role)
	}
	return out
}

func TestSourcesRolePresence(t *testing.T) {
	cases := []struct {
		version string
		goos    string
		want    []Role
	}{
		{"2.6", "linux", []Role{RoleCore, RoleFrontend}},
		{"3.0", "linux", []Role{RoleCore, RoleFrontend}},
		{"3.1", "linux", []Role{RoleCore, RoleFrontend, RoleRuntime}},
		{"3.1", "windows", []Role{RoleCore, RoleFrontend}},
		{"3.1", "darwin", []Role{RoleCore, RoleFrontend, RoleRuntime}},
		{"3.2", "darwin", []Role{RoleCore, RoleFrontend, RoleRuntime}},
		{"3.3", "darwin", []Role{RoleCore, RoleFrontend, RoleRuntime, RoleStdlib}},
		{"3.3", "linux", []Role{RoleCore, RoleFrontend, RoleRuntime}},
		{"3.4.1", "linux", []Role{RoleCore, RoleFrontend, RoleRuntime}},
		{"3.5.0", "windows", []Role{RoleCore, RoleFrontend}},
		{"3.9.1", "darwin", []Role{RoleCore, RoleFrontend, RoleRuntime, RoleStdlib}},
	}
	for _, tc := range cases {
		t.Run(tc.version+"/"+tc.goos, func(t *testing.T) {
			set := Sources(MustParse(tc.version), tc.goos, testBase)
			assert.Equal(t, tc.want, roles(set))
		})
	}
}

func TestSourcesRuntimeAbsentOnWindowsRegardlessOfVersion(t *testing.T) {
	for _, version := range []string{"2.6", "3.0", "3.1", "3.4", "3.5.0", "4.0.0"} {
		set := Sources(MustParse(version), "windows", testBase)
		_, present := set.Role(RoleRuntime)
		assert.False(t, present, "runtime should be absent on windows for %s", version)
	}
}

func TestSourcesFrontendNaming(t *testing.T) {
	cases := []struct {
		version string
		want    string
	}{
		{"2.6", "clang"},
		{"2.9", "clang"},
		{"3.0", "clang"},
		{"3.2", "clang"},
		{"3.3", "cfe"},
		{"3.4", "clang"}, // bare 3.4 reverted to the old name
		{"3.4.1", "cfe"},
		{"3.4.2", "cfe"},
		{"3.5.0", "cfe"},
		{"4.0.0", "cfe"},
	}
	for _, tc := range cases {
		set := Sources(MustParse(tc.version), "linux", testBase)
		frontend, ok := set.Role(RoleFrontend)
		require.True(t, ok, "frontend must always be present (%s)", tc.version)
		assert.Equal(t, tc.want, frontend.Name, "frontend name for %s", tc.version)
	}
}

func TestSourcesFilenamesAndURLs(t *testing.T) {
	set := Sources(MustParse("3.5.0"), "darwin", testBase)
	byRole := map[Role]Archive{}
	for _, a := range set.Archives {
		byRole[a.Role] = a
	}

	assert.Equal(t, "llvm-3.5.0.src.tar.xz", byRole[RoleCore].Filename)
	assert.Equal(t, "http://llvm.org/releases/3.5.0/llvm-3.5.0.src.tar.xz", byRole[RoleCore].URL)
	assert.Equal(t, "cfe-3.5.0.src.tar.xz", byRole[RoleFrontend].Filename)
	assert.Equal(t, "compiler-rt-3.5.0.src.tar.xz", byRole[RoleRuntime].Filename)
	assert.Equal(t, "libcxx-3.5.0.src.tar.xz", byRole[RoleStdlib].Filename)
}

func TestSourcesHistoricalShortTags(t *testing.T) {
	// For 3.4.1 and 3.4.2, compiler-rt and libcxx were never re-versioned:
	// they keep the 3.4 tag in both filename and URL while llvm and cfe use
	// the full three-component tag.
	set := Sources(MustParse("3.4.1"), "darwin", testBase)

	core, _ := set.Role(RoleCore)
	assert.Equal(t, "llvm-3.4.1.src.tar.gz", core.Filename)
	assert.Equal(t, "http://llvm.org/releases/3.4.1/llvm-3.4.1.src.tar.gz", core.URL)

	frontend, _ := set.Role(RoleFrontend)
	assert.Equal(t, "cfe-3.4.1.src.tar.gz", frontend.Filename)

	runtime, _ := set.Role(RoleRuntime)
	assert.Equal(t, "compiler-rt-3.4.src.tar.gz", runtime.Filename)
	assert.Equal(t, "http://llvm.org/releases/3.4/compiler-rt-3.4.src.tar.gz", runtime.URL)

	stdlib, _ := set.Role(RoleStdlib)
	assert.Equal(t, "libcxx-3.4.src.tar.gz", stdlib.Filename)
	assert.Equal(t, "http://llvm.org/releases/3.4/libcxx-3.4.src.tar.gz", stdlib.URL)
}

func TestSourcesStagingLayout(t *testing.T) {
	set := Sources(MustParse("3.4.1"), "linux", testBase)

	core := set.Core()
	assert.Equal(t, "llvm-src", core.StageDir)
	assert.Empty(t, core.Subpath)

	frontend, _ := set.Role(RoleFrontend)
	assert.Equal(t, "clang-src", frontend.StageDir)
	assert.Equal(t, "tools/clang", frontend.Subpath)

	runtime, _ := set.Role(RoleRuntime)
	assert.Equal(t, "compiler-rt-src", runtime.StageDir)
	assert.Equal(t, "projects/compiler-rt", runtime.Subpath)

	set = Sources(MustParse("3.5.0"), "darwin", testBase)
	stdlib, _ := set.Role(RoleStdlib)
	assert.Equal(t, "libcxx-src", stdlib.StageDir)
	assert.Equal(t, "projects/libcxx", stdlib.Subpath)
}

func TestSourcesCoreIsFirst(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		set := Sources(MustParse("3.5.0"), goos, testBase)
		require.NotEmpty(t, set.Archives)
		assert.Equal(t, RoleCore, set.Archives[0].Role, "core must come first on %s", goos)
	}
}
