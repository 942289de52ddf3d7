package ginternals_test

import (
	"path/filepath"
	"testing"

	"github.com/arkenfold/gitkit/ginternals"
	"github.com/stretchr/testify/require"
)

func TestLocalTagFullName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "refs/tags/my-tag/nested", ginternals.LocalTagFullName("my-tag/nested"))
}

func TestLocalTagShortName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "my-tag/nested", ginternals.LocalTagShortName("refs/tags/my-tag/nested"))
}

func TestLocalBranchFullName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "refs/heads/my-branch/nested", ginternals.LocalBranchFullName("my-branch/nested"))
}

func TestLocalBranchShortName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "my-branch/nested", ginternals.LocalBranchShortName("refs/heads/my-branch/nested"))
}

func TestRefFullName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "refs/HEAD", ginternals.RefFullName("HEAD"))
}

func TestRefsPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join("common", "refs"), ginternals.RefsPath("common"))
}

func TestRefPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join("common", "refs", "heads", "main"), ginternals.RefPath("common", "refs/heads/main"))
}

func TestTagsPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join("common", "refs", "tags"), ginternals.TagsPath("common"))
}

func TestLocalBranchesPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join("common", "refs", "heads"), ginternals.LocalBranchesPath("common"))
}

func TestObjectsPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join(".git", "objects"), ginternals.ObjectsPath(".git"))
}

func TestObjectsInfoPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join(".git", "objects", "info"), ginternals.ObjectsInfoPath(".git"))
}

func TestConfigPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join(".git", "config"), ginternals.ConfigPath(".git"))
}

func TestDescriptionFilePath(t *testing.T) {
	t.Parallel()
	require.Equal(t, filepath.Join(".git", "description"), ginternals.DescriptionFilePath(".git"))
}

func TestLooseObjectPath(t *testing.T) {
	t.Parallel()
	out := ginternals.LooseObjectPath(".git", "fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3")
	expect := filepath.Join(".git", "objects", "fc", "fe68a0e44e04bd7fd564fc0b75f1ae457e18b3")
	require.Equal(t, expect, out)
}
