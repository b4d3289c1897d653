package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const maxWalkDepth = 8

// ProjectRoot walks up from this source file to the first directory holding
// go.mod or .git, falling back to the working directory.
func ProjectRoot() (string, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		var root string
		walkUp(filepath.Dir(file), func(dir string) bool {
			if isRoot(dir) {
				root = dir
				return true
			}
			return false
		})
		if root != "" {
			return root, nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("confkit: getwd: %w", err)
	}
	return wd, nil
}

// MustProjectPath joins rel onto ProjectRoot and panics if the root is unknown.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}

// ResolvePath expands env vars in file and anchors relative results at base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir is the directory relative section files are resolved against.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// walkUp calls visit for dir and its ancestors until visit returns true.
func walkUp(dir string, visit func(string) bool) {
	for i := 0; i < maxWalkDepth; i++ {
		if visit(dir) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func isRoot(dir string) bool {
	return exists(filepath.Join(dir, "go.mod")) || exists(filepath.Join(dir, ".git"))
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
