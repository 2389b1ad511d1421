package homeaccess_test

import (
	"context"
	"testing"

	"hacproxy/lib/cookiejar"
	"hacproxy/lib/scrapers/homeaccess"
	"hacproxy/lib/scrapers/homeaccess/hactest"
	"hacproxy/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, portal *hactest.Portal) (*homeaccess.Client, *cookiejar.Jar) {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(t, "test:scrapers/homeaccess"))

	jar := cookiejar.New()
	client, err := homeaccess.NewClient(homeaccess.ClientOptions{
		BaseUrl: portal.URL,
		Jar:     jar,
	})
	require.NoError(t, err)
	return client, jar
}

func TestLoginRedirectSuccess(t *testing.T) {
	portal := hactest.New(hactest.Options{Username: "s123456", Password: "hunter2"})
	defer portal.Close()

	client, jar := newClient(t, portal)
	outcome, err := client.Login(context.Background(), "s123456", "hunter2")
	require.NoError(t, err)
	require.Equal(t, homeaccess.OutcomeAuthenticated, outcome)

	// the final settling GET must have been issued
	require.Equal(t, 1, portal.RedirectedHits)

	// the jar holds both the rotated session cookie and the auth cookie
	names := map[string]bool{}
	for _, e := range jar.Entries() {
		names[e.Name] = true
	}
	require.True(t, names["ASP.NET_SessionId"])
	require.True(t, names[".AuthCookie"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	portal := hactest.New(hactest.Options{Username: "s123456", Password: "hunter2"})
	defer portal.Close()

	client, _ := newClient(t, portal)
	outcome, err := client.Login(context.Background(), "s123456", "wrong")
	require.NoError(t, err)
	require.Equal(t, homeaccess.OutcomeInvalidCredentials, outcome)
}

func TestLoginFlatSuccessPage(t *testing.T) {
	portal := hactest.New(hactest.Options{
		Username:  "s123456",
		Password:  "hunter2",
		FlatLogin: true,
	})
	defer portal.Close()

	client, _ := newClient(t, portal)
	outcome, err := client.Login(context.Background(), "s123456", "hunter2")
	require.NoError(t, err)
	require.Equal(t, homeaccess.OutcomeAuthenticated, outcome)
	require.Equal(t, 0, portal.RedirectedHits)
}

func TestLoginAmbiguousPageIsFailure(t *testing.T) {
	portal := hactest.New(hactest.Options{
		Username:       "s123456",
		Password:       "hunter2",
		AmbiguousLogin: true,
	})
	defer portal.Close()

	client, _ := newClient(t, portal)
	outcome, err := client.Login(context.Background(), "s123456", "hunter2")
	require.NoError(t, err)
	require.Equal(t, homeaccess.OutcomeInvalidCredentials, outcome)
}

func TestLoginMissingToken(t *testing.T) {
	portal := hactest.New(hactest.Options{
		Username:  "s123456",
		Password:  "hunter2",
		OmitToken: true,
	})
	defer portal.Close()

	client, _ := newClient(t, portal)
	_, err := client.Login(context.Background(), "s123456", "hunter2")
	require.ErrorIs(t, err, homeaccess.ErrNoVerificationToken)
	// the failure must happen before any submission
	require.Equal(t, 0, portal.LoginPostHits)
}

func TestLoginEmptyCredentialsRejectedBeforeNetwork(t *testing.T) {
	portal := hactest.New(hactest.Options{Username: "s123456", Password: "hunter2"})
	defer portal.Close()

	client, _ := newClient(t, portal)
	_, err := client.Login(context.Background(), "", "hunter2")
	require.ErrorIs(t, err, homeaccess.ErrMissingCredentials)
	_, err = client.Login(context.Background(), "s123456", "")
	require.ErrorIs(t, err, homeaccess.ErrMissingCredentials)
	require.Equal(t, 0, portal.LoginPageHits)
}

func TestLoginUnreachablePortal(t *testing.T) {
	portal := hactest.New(hactest.Options{Username: "u", Password: "p"})
	portal.Close()

	jar := cookiejar.New()
	client, err := homeaccess.NewClient(homeaccess.ClientOptions{
		BaseUrl: portal.URL,
		Jar:     jar,
	})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "u", "p")
	require.Error(t, err)
}

func TestStripRolePrefix(t *testing.T) {
	require.Equal(t, "123456", homeaccess.StripRolePrefix("s123456"))
	require.Equal(t, "123456", homeaccess.StripRolePrefix("123456"))
	require.Equal(t, "x", homeaccess.StripRolePrefix("x"))
}
