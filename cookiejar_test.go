package corral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_CookieJar_SetFromResponse_and_CookiesFor(t *testing.T) {
	assert := assert.New(t)

	jar := NewCookieJar()
	headers := []KV{
		{Name: "Set-Cookie", Value: "session=abc123; Path=/"},
		{Name: "Set-Cookie", Value: "pref=dark; Domain=example.com; Path=/app"},
	}
	jar.SetFromResponse(headers, "example.com", "/")

	cookies := jar.CookiesFor("example.com", "/app/settings")
	names := make(map[string]string)
	for _, c := range cookies {
		names[c.Name] = c.Value
	}

	assert.Equal("abc123", names["session"])
	assert.Equal("dark", names["pref"])
}

func Test_CookieJar_CookiesFor_path_must_be_prefix(t *testing.T) {
	assert := assert.New(t)

	jar := NewCookieJar()
	jar.SetFromResponse([]KV{{Name: "Set-Cookie", Value: "a=1; Path=/accounts"}}, "example.com", "/")

	assert.Len(jar.CookiesFor("example.com", "/accounts/1"), 1)
	assert.Len(jar.CookiesFor("example.com", "/accountsx"), 0)
}

func Test_CookieJar_SetFromResponse_max_age_zero_removes(t *testing.T) {
	assert := assert.New(t)

	jar := NewCookieJar()
	jar.SetFromResponse([]KV{{Name: "Set-Cookie", Value: "a=1; Path=/"}}, "example.com", "/")
	assert.Len(jar.CookiesFor("example.com", "/"), 1)

	jar.SetFromResponse([]KV{{Name: "Set-Cookie", Value: "a=; Max-Age=0; Path=/"}}, "example.com", "/")
	assert.Len(jar.CookiesFor("example.com", "/"), 0)
}

func Test_CookieJar_domain_subdomains(t *testing.T) {
	assert := assert.New(t)

	jar := NewCookieJar()
	jar.SetFromResponse([]KV{{Name: "Set-Cookie", Value: "a=1; Domain=example.com; Path=/"}}, "example.com", "/")

	assert.Len(jar.CookiesFor("sub.example.com", "/"), 1)
	assert.Len(jar.CookiesFor("other.com", "/"), 0)
}

func Test_CookieJar_EvictExpired(t *testing.T) {
	assert := assert.New(t)

	jar := NewCookieJar()
	jar.SetFromResponse([]KV{{Name: "Set-Cookie", Value: "a=1; Max-Age=10; Path=/"}}, "example.com", "/")

	jar.EvictExpired(time.Now())
	assert.Len(jar.All(), 1)

	jar.EvictExpired(time.Now().Add(20 * time.Second))
	assert.Len(jar.All(), 0)
}
