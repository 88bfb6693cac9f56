package eatap

import (
	"context"
	"net/http"
	"testing"

	"eatap-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestFetchFormToken(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><form>
			<input type="hidden" name="_token" value="k9PqR2vX8mN4sT7w">
		</form></html>`))
	}))

	token, err := client.FetchFormToken(context.Background(), client.absoluteUrl("/profiles/individuals"))
	require.NoError(t, err)
	require.Equal(t, "k9PqR2vX8mN4sT7w", token)
}

func TestFetchFormTokenRegexFallback(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	// the form only exists inside a script template here, no input
	// element survives parsing but the attribute pair is still present
	// in the source text
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<script>
			document.body.innerHTML = '<form><input name="_token" value="fallback-token-123"></form>';
			</script>
		</body></html>`))
	}))

	token, err := client.FetchFormToken(context.Background(), client.absoluteUrl("/profiles/individuals"))
	require.NoError(t, err)
	require.Equal(t, "fallback-token-123", token)
}

func TestFetchFormTokenMissing(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/eatap")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><form><input name="name" value="x"></form></html>`))
	}))

	_, err := client.FetchFormToken(context.Background(), client.absoluteUrl("/profiles/individuals"))

	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
}
