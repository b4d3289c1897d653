// Package confkit holds the small pieces shared by every config loader:
// project-relative paths, .env loading and sections stored in their own file.
package confkit

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/conf"
)

// Section points at a configuration document kept in a separate file. File is
// read from the main config; Value is filled by Hydrate.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Loaded reports whether Hydrate produced a value.
func (s Section[T]) Loaded() bool {
	return s.Value != nil
}

// Hydrate resolves File against base and loads it with loader. An empty File
// leaves the section untouched.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return fmt.Errorf("confkit: section %s: %w", p, err)
	}
	s.File, s.Value = p, v
	return nil
}

// Load reads path into a fresh T with go-zero's conf, expanding env vars.
func Load[T any](path string) (*T, error) {
	var cfg T
	if err := conf.Load(path, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("confkit: load %s: %w", path, err)
	}
	return &cfg, nil
}
