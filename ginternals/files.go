package ginternals

import (
	"path"
	"path/filepath"
	"strings"
)

// .git/ Files and directories
// We keep the refs paths in unix format since they must be stored
// this way. The backend is in charge of converting this to the
// current system when needed.
const (
	refsDirName      = "refs"
	refsTagsRelPath  = refsDirName + "/tags"
	refsHeadsRelPath = refsDirName + "/heads"
)

// LocalTagFullName returns the full name of a tag
// ex. for `my-tag` returns `refs/tags/my-tag`
func LocalTagFullName(shortName string) string {
	return path.Join(refsTagsRelPath, shortName)
}

// LocalTagShortName returns the short name of a tag
// ex. for refs/tags/my-tag returns my-tag
func LocalTagShortName(fullName string) string {
	return strings.TrimPrefix(fullName, refsTagsRelPath+"/")
}

// LocalBranchFullName returns the full name of branch
// ex. for `main` returns `refs/heads/main`
func LocalBranchFullName(shortName string) string {
	return path.Join(refsHeadsRelPath, shortName)
}

// LocalBranchShortName returns the short name of a branch
// ex. for `refs/heads/main` returns `main`
func LocalBranchShortName(fullName string) string {
	return strings.TrimPrefix(fullName, refsHeadsRelPath+"/")
}

// RefFullName returns the UNIX path of a ref
func RefFullName(shortName string) string {
	return path.Join("refs", shortName)
}

// RefsPath returns the path to the directory that contains all the refs
func RefsPath(gitDirPath string) string {
	return filepath.Join(gitDirPath, refsDirName)
}

// RefPath returns the on-disk path of a reference, given its unix-style
// name (ex. "refs/heads/main", or "HEAD")
func RefPath(gitDirPath string, name string) string {
	return filepath.Join(gitDirPath, filepath.FromSlash(name))
}

// TagsPath returns the path to the directory that contains the tags
func TagsPath(gitDirPath string) string {
	return filepath.Join(RefsPath(gitDirPath), "tags")
}

// LocalBranchesPath returns the path to the directory containing the
// local branches
func LocalBranchesPath(gitDirPath string) string {
	return filepath.Join(RefsPath(gitDirPath), "heads")
}

// ObjectsPath returns the path to the directory that contains the objects
func ObjectsPath(gitDirPath string) string {
	return filepath.Join(gitDirPath, "objects")
}

// ObjectsInfoPath returns the path to the directory that contains
// the info about the objects
func ObjectsInfoPath(gitDirPath string) string {
	return filepath.Join(ObjectsPath(gitDirPath), "info")
}

// ConfigPath returns the path to the local config file
func ConfigPath(gitDirPath string) string {
	return filepath.Join(gitDirPath, "config")
}

// DescriptionFilePath returns the path to the description file
func DescriptionFilePath(gitDirPath string) string {
	return filepath.Join(gitDirPath, "description")
}

// LooseObjectPath returns the path of a loose object.
// Path is .git/objects/first_2_chars_of_sha/remaining_chars_of_sha
//
// Ex. path of fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3 is:
// .git/objects/fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func LooseObjectPath(gitDirPath string, sha string) string {
	return filepath.Join(ObjectsPath(gitDirPath), sha[:2], sha[2:])
}
