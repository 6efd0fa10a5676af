package fs

import (
	"os"

	"github.com/spf13/afero"
)

// AferoFS adapts an afero.Fs to FileSystem.
//
// It lets the async adapter run over afero.NewMemMapFs() in tests or over any
// other afero backend. Lstat falls back to Stat when the backend does not
// implement afero.Lstater.
type AferoFS struct {
	Fs afero.Fs
}

// NewAferoFS wraps fsys. A nil fsys selects afero.NewOsFs().
func NewAferoFS(fsys afero.Fs) *AferoFS {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &AferoFS{Fs: fsys}
}

func (a *AferoFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := a.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (a *AferoFS) Stat(name string) (os.FileInfo, error) { return a.Fs.Stat(name) }

func (a *AferoFS) Lstat(name string) (os.FileInfo, error) {
	if l, ok := a.Fs.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(name)
		return fi, err
	}
	return a.Fs.Stat(name)
}

func (a *AferoFS) Mkdir(name string, perm os.FileMode) error    { return a.Fs.Mkdir(name, perm) }
func (a *AferoFS) MkdirAll(path string, perm os.FileMode) error { return a.Fs.MkdirAll(path, perm) }
func (a *AferoFS) Remove(name string) error                     { return a.Fs.Remove(name) }
func (a *AferoFS) Rename(oldpath, newpath string) error         { return a.Fs.Rename(oldpath, newpath) }
