// Package cookiejar provides an http.CookieJar that can be snapshotted to an
// opaque string and rebuilt later. The standard library jar cannot enumerate
// its entries, which makes it useless for sessions that live in an external
// store between requests.
package cookiejar

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is a single stored cookie. Domain is stored without a leading dot,
// HostOnly records whether the cookie came without a Domain attribute.
type Entry struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
	HostOnly bool      `json:"host_only,omitempty"`
	// Persistent is false for session cookies, which never expire
	// within the lifetime of the jar.
	Persistent bool `json:"persistent,omitempty"`

	seq uint64
}

func (e Entry) key() string {
	return e.Domain + ";" + e.Path + ";" + e.Name
}

func (e Entry) expired(now time.Time) bool {
	return e.Persistent && !e.Expires.After(now)
}

// Jar implements http.CookieJar over a flat set of entries keyed by
// (domain, path, name). Writes for the same key override earlier ones.
type Jar struct {
	mu      sync.Mutex
	entries map[string]Entry
	nextSeq uint64
}

func New() *Jar {
	return &Jar{entries: map[string]Entry{}}
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u == nil || len(cookies) == 0 {
		return
	}
	host := canonicalHost(u.Host)
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		e := Entry{
			Name:     c.Name,
			Value:    c.Value,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}

		if c.Domain == "" {
			e.Domain = host
			e.HostOnly = true
		} else {
			e.Domain = strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		}

		if c.Path == "" || !strings.HasPrefix(c.Path, "/") {
			e.Path = defaultPath(u.Path)
		} else {
			e.Path = c.Path
		}

		if c.MaxAge < 0 {
			delete(j.entries, e.key())
			continue
		}
		if c.MaxAge > 0 {
			e.Persistent = true
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		} else if !c.Expires.IsZero() {
			e.Persistent = true
			e.Expires = c.Expires
		}
		if e.expired(now) {
			delete(j.entries, e.key())
			continue
		}

		// keep the original sequence number on overwrite so that
		// replaying a rotated cookie does not reorder the jar
		if old, ok := j.entries[e.key()]; ok {
			e.seq = old.seq
		} else {
			e.seq = j.nextSeq
			j.nextSeq++
		}
		j.entries[e.key()] = e
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	if u == nil {
		return nil
	}
	host := canonicalHost(u.Host)
	secure := u.Scheme == "https"
	path := u.Path
	if path == "" {
		path = "/"
	}
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var matched []Entry
	for key, e := range j.entries {
		if e.expired(now) {
			delete(j.entries, key)
			continue
		}
		if e.Secure && !secure {
			continue
		}
		if !domainMatch(e, host) || !pathMatch(e, path) {
			continue
		}
		matched = append(matched, e)
	}

	// longer paths first, then arrival order (RFC 6265 5.4)
	sort.Slice(matched, func(a, b int) bool {
		if len(matched[a].Path) != len(matched[b].Path) {
			return len(matched[a].Path) > len(matched[b].Path)
		}
		return matched[a].seq < matched[b].seq
	})

	cookies := make([]*http.Cookie, len(matched))
	for i, e := range matched {
		cookies[i] = &http.Cookie{Name: e.Name, Value: e.Value}
	}
	return cookies
}

// Entries returns a snapshot of every live cookie, in arrival order.
func (j *Jar) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].seq < out[b].seq
	})
	return out
}

func canonicalHost(host string) string {
	host = strings.ToLower(host)
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return host
}

// defaultPath implements RFC 6265 5.1.4.
func defaultPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func domainMatch(e Entry, host string) bool {
	if e.Domain == host {
		return true
	}
	if e.HostOnly {
		return false
	}
	return strings.HasSuffix(host, "."+e.Domain)
}

func pathMatch(e Entry, reqPath string) bool {
	if e.Path == reqPath {
		return true
	}
	if !strings.HasPrefix(reqPath, e.Path) {
		return false
	}
	return strings.HasSuffix(e.Path, "/") || reqPath[len(e.Path)] == '/'
}
