package platform

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Fake is an in-memory Platform for tests. Zero-valued maps behave as
// empty: no properties, no files, no commands, no permissions.
type Fake struct {
	PlatformName string
	Level        int

	Props map[string]string

	// Files maps paths to contents. FileErrors takes precedence and lets a
	// test simulate unreadable files.
	Files      map[string]string
	FileErrors map[string]error

	// Commands maps "name arg1 arg2" to the command's output.
	Commands map[string]string

	Granted map[Permission]bool
}

// NewFake returns a Fake describing an Android device at the given API level.
func NewFake(level int) *Fake {
	return &Fake{
		PlatformName: "android",
		Level:        level,
		Props:        map[string]string{},
		Files:        map[string]string{},
		FileErrors:   map[string]error{},
		Commands:     map[string]string{},
		Granted:      map[Permission]bool{},
	}
}

func (f *Fake) Name() string {
	if f.PlatformName == "" {
		return "fake"
	}
	return f.PlatformName
}

func (f *Fake) APILevel() int { return f.Level }

func (f *Fake) Property(_ context.Context, key string) string { return f.Props[key] }

func (f *Fake) HasPermission(p Permission) bool { return f.Granted[p] }

// Grant marks each permission as held.
func (f *Fake) Grant(perms ...Permission) {
	if f.Granted == nil {
		f.Granted = map[Permission]bool{}
	}
	for _, p := range perms {
		f.Granted[p] = true
	}
}

func (f *Fake) ReadFile(path string) ([]byte, error) {
	if err, ok := f.FileErrors[path]; ok {
		return nil, err
	}
	content, ok := f.Files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(content), nil
}

func (f *Fake) FileExists(path string) bool {
	if _, ok := f.Files[path]; ok {
		return true
	}
	_, ok := f.FileErrors[path]
	return ok
}

func (f *Fake) Glob(pattern string) ([]string, error) {
	var matches []string
	for path := range f.Files {
		ok, err := filepath.Match(pattern, path)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, path)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	out, ok := f.Commands[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}
	return strings.TrimSpace(out), nil
}

func (f *Fake) LookPath(file string) (string, error) {
	for key := range f.Commands {
		if key == file || strings.HasPrefix(key, file+" ") {
			return "/system/bin/" + file, nil
		}
	}
	return "", fmt.Errorf("%s: %w", file, ErrCommandNotFound)
}
