package files

import (
	"os"
	"path"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	cpy "github.com/otiai10/copy"
)

func CreateDirectories(path_segments ...string) string {
	p := path.Join(path_segments...)
	util.PanicIfNotNil(os.MkdirAll(p, os.ModePerm))
	return p
}

func CreateDirectoriesClean(path_segments ...string) string {
	return CreateDirectories(RemoveAll(path_segments...))
}

func RemoveAll(path_segments ...string) string {
	p := path.Join(path_segments...)
	util.PanicIfNotNil(os.RemoveAll(p))
	return p
}

func Exists(path_segments ...string) bool {
	_, err := os.Stat(path.Join(path_segments...))
	return !os.IsNotExist(err)
}

// Copy clones a closed database directory. Copying a directory of an open database
// yields an inconsistent image.
func Copy(src, dest string) error {
	return cpy.Copy(src, dest, cpy.Options{Sync: true})
}
