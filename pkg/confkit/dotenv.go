package confkit

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

// Environment switches read before any .env file is applied.
const (
	EnvNoDotenv = "CRYPTOLENS_NO_DOTENV"
	EnvOverload = "CRYPTOLENS_DOTENV_OVERLOAD"
	EnvFile     = "CRYPTOLENS_ENV_FILE"
)

var dotenvOnce sync.Once

// LoadDotenvOnce applies .env files once per process. An explicit
// CRYPTOLENS_ENV_FILE wins; otherwise every .env from this package up to the
// project root is loaded, nearest first. Variables already set are kept unless
// CRYPTOLENS_DOTENV_OVERLOAD=1.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv(EnvNoDotenv) == "1" {
		return
	}
	apply := godotenv.Load
	if os.Getenv(EnvOverload) == "1" {
		apply = godotenv.Overload
	}

	if file := os.Getenv(EnvFile); file != "" {
		_ = apply(file)
		return
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		_ = apply(".env")
		return
	}
	walkUp(filepath.Dir(file), func(dir string) bool {
		if candidate := filepath.Join(dir, ".env"); exists(candidate) {
			_ = apply(candidate)
		}
		return isRoot(dir)
	})
}
