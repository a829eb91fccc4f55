package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
)

// fileJar is a cookie jar that persists the API host's cookies to a JSON
// file between CLI invocations. Only name/value pairs survive a restart;
// the server re-issues attributes with every response, so that is enough
// to resume a cookie session.
type fileJar struct {
	*cookiejar.Jar
	path string
	base *url.URL
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func newFileJar(path, baseURL string) (*fileJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	f := &fileJar{Jar: jar, path: path, base: base}
	f.load()
	return f, nil
}

// load restores previously saved cookies. A missing or corrupt file just
// means starting signed out.
func (f *fileJar) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	f.SetCookies(f.base, cookies)
}

func (f *fileJar) Save() error {
	cookies := f.Cookies(f.base)
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}
