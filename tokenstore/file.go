package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/must"
	"github.com/xeptore/pxv/pixiv"
)

const fileName = "credentials.json"

// File is a credential set stored as JSON in a file readable only by its
// owner.
type File string

func FileFrom(dir string) File {
	return File(filepath.Join(dir, fileName))
}

func (f File) path() string {
	return string(f)
}

// Read returns ErrNotFound when the file does not exist.
func (f File) Read() (info *pixiv.AuthInfo, err error) {
	file, err := os.OpenFile(f.path(), os.O_RDONLY, 0o0600)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to open credentials file: %v", err)).Append(flawP)
	}
	defer func() {
		if closeErr := file.Close(); nil != closeErr {
			flawP := flaw.P{"err_debug_tree": errutil.Tree(closeErr).FlawP()}
			err = must.JoinFlaw(err, flaw.From(fmt.Errorf("failed to close credentials file: %v", closeErr)).Append(flawP))
		}
	}()

	info = new(pixiv.AuthInfo)
	if err := json.NewDecoder(file).Decode(info); nil != err {
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to decode credentials file: %v", err)).Append(flawP)
	}
	return info, nil
}

// Write replaces the file atomically, creating its directory when missing.
func (f File) Write(info pixiv.AuthInfo) error {
	data, err := json.Marshal(info)
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to encode credentials: %v", err)).Append(flawP)
	}

	dir := filepath.Dir(f.path())
	if err := os.MkdirAll(dir, 0o0700); nil != err {
		flawP := flaw.P{"dir": dir, "err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to create credentials directory: %v", err)).Append(flawP)
	}

	tmp, err := os.CreateTemp(dir, "credentials-*.json.tmp")
	if nil != err {
		flawP := flaw.P{"dir": dir, "err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to create temporary credentials file: %v", err)).Append(flawP)
	}
	tmpPath := tmp.Name()

	if err := writeAndClose(tmp, data); nil != err {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, f.path()); nil != err {
		if runtime.GOOS == "windows" {
			_ = os.Remove(f.path())
			err = os.Rename(tmpPath, f.path())
		}
		if nil != err {
			_ = os.Remove(tmpPath)
			flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
			return flaw.From(fmt.Errorf("failed to replace credentials file: %v", err)).Append(flawP)
		}
	}
	return nil
}

func writeAndClose(file *os.File, data []byte) error {
	if err := file.Chmod(0o0600); nil != err {
		_ = file.Close()
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to restrict credentials file mode: %v", err)).Append(flawP)
	}
	if _, err := file.Write(data); nil != err {
		_ = file.Close()
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to write credentials file: %v", err)).Append(flawP)
	}
	if err := file.Close(); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to close credentials file: %v", err)).Append(flawP)
	}
	return nil
}

// Remove deletes the file. A missing file is not an error.
func (f File) Remove() error {
	if err := os.Remove(f.path()); nil != err && !errors.Is(err, os.ErrNotExist) {
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to remove credentials file: %v", err)).Append(flawP)
	}
	return nil
}
