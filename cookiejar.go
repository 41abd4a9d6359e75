package corral

import (
	"net/http"
	"strings"
	"time"
)

// Cookie is one stored cookie (spec §3). MaxAge == 0 means the cookie has
// been deleted (the jar removes it by name on receipt of such an entry).
// Subdomains tracks whether the Set-Cookie header explicitly named a Domain
// attribute (allowing sub-domain matches) versus defaulting to the request
// host (exact host match only) -- spec §4.10/§9.
type Cookie struct {
	Name       string
	Value      string
	MaxAge     *int
	Domain     string
	Path       string
	Subdomains bool
	SetAt      time.Time
}

// CookieJar is a flat list of cookies keyed conceptually by (name, domain);
// lookup is linear, matching the teacher's preference for a small, auditable
// data structure over a tree (spec §9: "jars are tiny per run").
type CookieJar struct {
	cookies []Cookie
}

// NewCookieJar returns an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{}
}

// SetFromResponse applies every Set-Cookie header in headers to the jar, as
// received from a response to requestHost/requestPath. max_age == 0 removes
// the cookie by name.
func (j *CookieJar) SetFromResponse(headers []KV, requestHost, requestPath string) {
	for _, raw := range headerLookupAll(headers, "Set-Cookie") {
		hc, err := http.ParseSetCookie(raw)
		if err != nil || hc.Name == "" {
			continue
		}

		domain := hc.Domain
		subdomains := domain != ""
		if domain == "" {
			domain = requestHost
		}
		path := hc.Path
		if path == "" {
			path = "/"
		}

		var maxAge *int
		if hc.MaxAge != 0 || strings.Contains(strings.ToLower(raw), "max-age") {
			ma := hc.MaxAge
			maxAge = &ma
		}

		// net/http reports "Max-Age=0" as MaxAge -1.
		if maxAge != nil && *maxAge <= 0 {
			j.removeByName(hc.Name)
			continue
		}

		j.set(Cookie{
			Name:       hc.Name,
			Value:      hc.Value,
			MaxAge:     maxAge,
			Domain:     strings.TrimPrefix(domain, "."),
			Path:       path,
			Subdomains: subdomains,
			SetAt:      time.Now(),
		})
	}
}

// set inserts or replaces a cookie by (name, domain).
func (j *CookieJar) set(c Cookie) {
	for i, existing := range j.cookies {
		if strings.EqualFold(existing.Name, c.Name) && strings.EqualFold(existing.Domain, c.Domain) {
			j.cookies[i] = c
			return
		}
	}
	j.cookies = append(j.cookies, c)
}

func (j *CookieJar) removeByName(name string) {
	out := j.cookies[:0]
	for _, c := range j.cookies {
		if !strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	j.cookies = out
}

// CookiesFor returns the cookies that should be sent with a request to
// (host, path): the cookie's domain must equal the request domain, or the
// cookie must be sub-domain-enabled and the request domain a sub-domain of
// it; and the cookie's path must be a (segment-wise) prefix of the request
// path (spec §4.10).
func (j *CookieJar) CookiesFor(host, path string) []Cookie {
	var out []Cookie
	for _, c := range j.cookies {
		if !domainMatches(c, host) {
			continue
		}
		if !pathIsPrefix(c.Path, path) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func domainMatches(c Cookie, host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	domain := strings.ToLower(c.Domain)
	if host == domain {
		return true
	}
	if c.Subdomains && strings.HasSuffix(host, "."+domain) {
		return true
	}
	return false
}

// pathIsPrefix reports whether cookiePath is a segment-wise prefix of
// requestPath, e.g. "/accounts" is a prefix of "/accounts/1" but not of
// "/accountsx".
func pathIsPrefix(cookiePath, requestPath string) bool {
	if cookiePath == "" || cookiePath == "/" {
		return true
	}
	cookiePath = strings.TrimSuffix(cookiePath, "/")
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	rest := requestPath[len(cookiePath):]
	return rest == "" || strings.HasPrefix(rest, "/")
}

// All returns every cookie currently stored, for diagnostics/dumping.
func (j *CookieJar) All() []Cookie {
	out := make([]Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out
}

// EvictExpired removes cookies whose MaxAge has elapsed since each cookie's
// own SetAt, the policy TimedCookieJar in the teacher's codebase applies
// around a CookieLifetime setting; here the lifetime is implicit in each
// cookie's own MaxAge rather than a single jar-wide setting, since the
// language has no cross-file session concept (spec §1 Non-goals).
func (j *CookieJar) EvictExpired(now time.Time) {
	out := j.cookies[:0]
	for _, c := range j.cookies {
		if c.MaxAge == nil {
			out = append(out, c)
			continue
		}
		if now.Before(c.SetAt.Add(time.Duration(*c.MaxAge) * time.Second)) {
			out = append(out, c)
		}
	}
	j.cookies = out
}
