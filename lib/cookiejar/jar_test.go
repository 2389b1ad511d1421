package cookiejar

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSetAndGetCookies(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://portal.example.net/HomeAccess/Account/LogOn")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "ASP.NET_SessionId", Value: "abc"},
		{Name: ".AuthCookie", Value: "tok", Path: "/"},
	})

	got := jar.Cookies(mustParse(t, "https://portal.example.net/HomeAccess/"))
	require.Len(t, got, 1)
	require.Equal(t, ".AuthCookie", got[0].Name)

	got = jar.Cookies(mustParse(t, "https://portal.example.net/HomeAccess/Account/Other"))
	require.Len(t, got, 2)
}

func TestLaterWriteOverridesEarlier(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://portal.example.net/")

	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "first", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "second", Path: "/"}})

	got := jar.Cookies(u)
	require.Len(t, got, 1)
	require.Equal(t, "second", got[0].Value)
}

func TestSecureCookieNotSentOverHttp(t *testing.T) {
	jar := New()
	jar.SetCookies(mustParse(t, "https://portal.example.net/"), []*http.Cookie{
		{Name: "sid", Value: "v", Path: "/", Secure: true},
	})

	require.Empty(t, jar.Cookies(mustParse(t, "http://portal.example.net/")))
	require.Len(t, jar.Cookies(mustParse(t, "https://portal.example.net/")), 1)
}

func TestExpiredCookieDropped(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://portal.example.net/")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "gone", Value: "v", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "kept", Value: "v", Path: "/", Expires: time.Now().Add(time.Hour)},
		{Name: "session", Value: "v", Path: "/"},
	})

	got := jar.Cookies(u)
	require.Len(t, got, 2)
	for _, c := range got {
		require.NotEqual(t, "gone", c.Name)
	}
}

func TestMaxAgeDeletes(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://portal.example.net/")

	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "v", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "", Path: "/", MaxAge: -1}})

	require.Empty(t, jar.Cookies(u))
}

func TestDomainMatching(t *testing.T) {
	jar := New()
	jar.SetCookies(mustParse(t, "https://portal.example.net/"), []*http.Cookie{
		{Name: "hostonly", Value: "v", Path: "/"},
		{Name: "wide", Value: "v", Path: "/", Domain: "example.net"},
	})

	sub := jar.Cookies(mustParse(t, "https://other.example.net/"))
	require.Len(t, sub, 1)
	require.Equal(t, "wide", sub[0].Name)

	require.Empty(t, jar.Cookies(mustParse(t, "https://notexample.net/")))
}

func TestRoundTripPreservesEntries(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://portal.example.net/HomeAccess/")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "ASP.NET_SessionId", Value: "abc"},
		{Name: ".AuthCookie", Value: "tok", Path: "/", HttpOnly: true},
		{Name: "pref", Value: "1", Path: "/", Expires: time.Now().Add(24 * time.Hour)},
	})

	serialized, err := Encode(jar)
	require.NoError(t, err)

	restored, err := Decode(serialized)
	require.NoError(t, err)

	want := jar.Entries()
	got := restored.Entries()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Domain, got[i].Domain)
		require.Equal(t, want[i].Path, got[i].Path)
		require.Equal(t, want[i].Name, got[i].Name)
		require.Equal(t, want[i].Value, got[i].Value)
	}

	require.Len(t, restored.Cookies(u), 3)
}

func TestDecodeEmpty(t *testing.T) {
	jar, err := Decode("")
	require.NoError(t, err)
	require.Empty(t, jar.Entries())
}
