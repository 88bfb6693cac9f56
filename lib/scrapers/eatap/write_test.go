package eatap

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"eatap-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testToken = "k9PqR2vX8mN4sT7w"

type recordedSubmission struct {
	Body    string
	Referer string
}

// writePortal fakes the portal's write flow: a GET on the form path
// serves a token page, a POST records the submission and answers with
// the configured redirect.
func writePortal(t *testing.T, redirectStatus int, redirectLocation string) (*Client, *recordedSubmission) {
	t.Helper()

	recorded := &recordedSubmission{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><form><input type="hidden" name="_token" value="` + testToken + `"></form></html>`))
			return
		}

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		recorded.Body = string(body)
		recorded.Referer = r.Header.Get("Referer")

		w.Header().Set("Location", redirectLocation)
		w.WriteHeader(redirectStatus)
	}))
	return client, recorded
}

func TestCreateProfile(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client, recorded := writePortal(t, http.StatusFound, "https://atap.seda.gov.my/profiles/individuals/777/edit")

	outcome, err := client.CreateProfile(context.Background(), NewFormFields(
		Field{Name: "name", Value: "AHMAD BIN ABDULLAH"},
		Field{Name: "mykad_no", Value: "880101-10-5523"},
	))
	require.NoError(t, err)

	require.True(t, outcome.OK)
	require.Equal(t, "777", outcome.ResourceId)
	require.Equal(t, "https://atap.seda.gov.my/profiles/individuals/777/edit", outcome.RedirectTarget)

	require.Equal(t,
		"_token="+testToken+"&_token="+testToken+"&name=AHMAD+BIN+ABDULLAH&mykad_no=880101-10-5523",
		recorded.Body)
	require.Equal(t, client.absoluteUrl("/profiles/individuals"), recorded.Referer)
}

func TestUpdateProfileSpoofsPut(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client, recorded := writePortal(t, http.StatusFound, "/profiles/individuals/101/edit")

	outcome, err := client.UpdateProfile(context.Background(), "101", NewFormFields(
		Field{Name: "email", Value: "new@example.com"},
	))
	require.NoError(t, err)
	require.True(t, outcome.OK)
	require.Equal(t, "101", outcome.ResourceId)

	require.Equal(t,
		"_token="+testToken+"&_token="+testToken+"&_method=PUT&email=new%40example.com",
		recorded.Body)
	require.Equal(t, client.absoluteUrl("/profiles/individuals/101/edit"), recorded.Referer)
}

func TestWriteStripsCallerControlFields(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client, recorded := writePortal(t, http.StatusFound, "/profiles/individuals/777/edit")

	// injected token and method override must not survive into the
	// submission
	outcome, err := client.CreateProfile(context.Background(), NewFormFields(
		Field{Name: "_token", Value: "forged"},
		Field{Name: "_method", Value: "DELETE"},
		Field{Name: "name", Value: "AHMAD"},
	))
	require.NoError(t, err)
	require.True(t, outcome.OK)

	require.NotContains(t, recorded.Body, "forged")
	require.NotContains(t, recorded.Body, "DELETE")
	require.Equal(t, 2, strings.Count(recorded.Body, "_token="+testToken))
}

func TestWriteRedirectToListingMeansUnknownId(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client, _ := writePortal(t, http.StatusSeeOther, "https://atap.seda.gov.my/profiles/individuals")

	outcome, err := client.CreateProfile(context.Background(), NewFormFields(
		Field{Name: "name", Value: "AHMAD"},
	))
	require.NoError(t, err)
	require.True(t, outcome.OK)
	require.Empty(t, outcome.ResourceId)
}

func TestWriteAcceptsEveryRedirectStatus(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	statuses := []int{
		http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect,
	}
	for _, status := range statuses {
		client, _ := writePortal(t, status, "/profiles/individuals/777/edit")

		outcome, err := client.CreateProfile(context.Background(), NewFormFields(
			Field{Name: "name", Value: "AHMAD"},
		))
		require.NoError(t, err)
		require.True(t, outcome.OK, "status %d", status)
		require.Equal(t, "777", outcome.ResourceId, "status %d", status)
	}
}

func TestWriteUnexpectedRedirectIsFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client, _ := writePortal(t, http.StatusFound, "/dashboard")

	outcome, err := client.CreateProfile(context.Background(), NewFormFields(
		Field{Name: "name", Value: "AHMAD"},
	))
	require.NoError(t, err)
	require.False(t, outcome.OK)
	require.Contains(t, outcome.Reason, "unexpected redirect target")
}

func TestWriteNonRedirectIsFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><form><input name="_token" value="` + testToken + `"></form></html>`))
			return
		}
		w.Write([]byte("<html>validation errors</html>"))
	}))

	outcome, err := client.CreateProfile(context.Background(), NewFormFields(
		Field{Name: "name", Value: "AHMAD"},
	))
	require.NoError(t, err)
	require.False(t, outcome.OK)
	require.Contains(t, outcome.Reason, "200")
}

func TestWriteLoginRedirectIsSessionExpiry(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client, _ := writePortal(t, http.StatusFound, "/login")

	_, err := client.CreateProfile(context.Background(), NewFormFields(
		Field{Name: "name", Value: "AHMAD"},
	))
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestWriteRestoresRedirectPolicy(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			http.Redirect(w, r, "/profiles/individuals/777/edit", http.StatusFound)
		case r.URL.Path == "/moved":
			http.Redirect(w, r, "/landed", http.StatusFound)
		case r.URL.Path == "/landed":
			w.Write([]byte("<html>landed</html>"))
		default:
			w.Write([]byte(`<html><form><input name="_token" value="` + testToken + `"></form></html>`))
		}
	}))

	_, err := client.CreateProfile(context.Background(), NewFormFields())
	require.NoError(t, err)

	// reads after a write follow redirects again
	res, err := client.Http.R().Get("/moved")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, "/landed", res.RawResponse.Request.URL.Path)
}

func TestBuildWritePayloadOrder(t *testing.T) {
	payload := buildWritePayload("tok", "PUT", NewFormFields(
		Field{Name: "b", Value: "2"},
		Field{Name: "a", Value: "1"},
	))

	require.Equal(t, []Field{
		{Name: "_token", Value: "tok"},
		{Name: "_token", Value: "tok"},
		{Name: "_method", Value: "PUT"},
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
	}, payload)
}

func TestEncodeFormPreservesOrderAndDuplicates(t *testing.T) {
	encoded := encodeForm([]Field{
		{Name: "_token", Value: "a b"},
		{Name: "_token", Value: "a b"},
		{Name: "z", Value: "1"},
		{Name: "a", Value: "&="},
	})
	require.Equal(t, "_token=a+b&_token=a+b&z=1&a=%26%3D", encoded)

	// still parseable as a standard form body
	values, err := url.ParseQuery(encoded)
	require.NoError(t, err)
	require.Equal(t, []string{"a b", "a b"}, values["_token"])
}
