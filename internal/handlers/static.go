package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// Static serves files from dir and falls back to dir/index.html for any path
// that is not a regular file, so client-side routes load the shell.
func Static(dir string) http.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		// path.Clean on a rooted path cannot climb above "/".
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if serveFile(w, r, name) {
			return
		}
		if !serveFile(w, r, index) {
			writeError(w, http.StatusNotFound, "not found")
		}
	}
}

// serveFile reports false without writing anything if name is not a readable
// regular file.
func serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
