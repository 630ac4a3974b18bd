package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// MaxModuleSize bounds the number of bytes read for a single resource.
const MaxModuleSize = 64 << 20

// Source locates the backend resources under a base location.
type Source interface {
	// Exists reports whether the named resource is present. It must be
	// cheap: HTTP sources issue a HEAD request.
	Exists(ctx context.Context, name string) bool

	// Fetch returns the contents of the named resource.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SourceFor returns an HTTPSource for http and https base locations and an
// FSSource rooted at the base directory otherwise.
func SourceFor(base string, client *http.Client) Source {
	if u, err := url.Parse(base); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return &HTTPSource{Base: base, Client: client}
	}
	dir := filepath.Clean(base)
	if base == "" {
		dir = "."
	}
	return FSSource{FS: os.DirFS(dir)}
}

// HTTPSource fetches resources by appending their names to Base.
type HTTPSource struct {
	Base   string
	Client *http.Client
}

func (s *HTTPSource) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

// Exists issues a HEAD request and reports whether it returned 2xx.
func (s *HTTPSource) Exists(ctx context.Context, name string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.Base+name, nil)
	if err != nil {
		return false
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Fetch issues a GET request and returns the body of a 2xx response.
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := s.Base + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", u, err)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("loader: fetch %s: %s", u, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxModuleSize+1))
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", u, err)
	}
	if len(body) > MaxModuleSize {
		return nil, fmt.Errorf("loader: %s exceeds %d bytes", u, MaxModuleSize)
	}
	return body, nil
}

// FSSource reads resources from Dir inside FS.
type FSSource struct {
	FS  fs.FS
	Dir string
}

func (s FSSource) name(name string) string {
	if s.Dir == "" {
		return name
	}
	return path.Join(s.Dir, name)
}

// Exists reports whether the named resource is a regular file.
func (s FSSource) Exists(_ context.Context, name string) bool {
	info, err := fs.Stat(s.FS, s.name(name))
	return err == nil && !info.IsDir()
}

// Fetch reads the named resource.
func (s FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.FS, s.name(name))
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", s.name(name), err)
	}
	return data, nil
}
