package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// The client used for fetching remote resources.
var HTTPClient = &http.Client{Timeout: 30 * time.Second}

// A Resource is a readable scene asset stored either on the local filesystem
// or on a remote http(s) server.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// The location of the resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// The base name of the resource.
func (r *Resource) Name() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return filepath.Base(r.url.Path)
}

// Returns true if the resource is fetched over http(s).
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. Relative paths without a scheme are resolved against the
// location of relTo if specified; this allows material libraries referenced
// by a remote scene file to be fetched from the same server.
func Open(location string, relTo *Resource) (*Resource, error) {
	u, err := url.Parse(strings.Replace(location, `\`, `/`, -1))
	if err != nil {
		return nil, fmt.Errorf("resource: invalid location %q: %w", location, err)
	}

	if u.Scheme == "" && relTo != nil && !filepath.IsAbs(u.Path) {
		u, err = resolve(u.Path, relTo)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch u.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(u.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := HTTPClient.Get(u.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", u.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", u.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", u.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        u,
	}, nil
}

func resolve(relPath string, relTo *Resource) (*url.URL, error) {
	if relTo.IsRemote() {
		base := *relTo.url
		base.Path = path.Join(path.Dir(base.Path), relPath)
		return &base, nil
	}

	dir, err := filepath.Abs(filepath.Dir(relTo.url.Path))
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.Path(), err)
	}
	return &url.URL{Path: filepath.Join(dir, relPath)}, nil
}

// Wrap a reader as a local resource with the given name. Relative resources
// are resolved against the name's directory.
func FromReader(name string, source io.Reader) *Resource {
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        &url.URL{Path: name},
	}
}
