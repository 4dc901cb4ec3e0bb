// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLabelStudioServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/organizations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"id": 1, "title": "Label Studio", "created_by": 1}]`)
	})
	mux.HandleFunc("/api/organizations/1/memberships", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"count": 2,
			"next": null,
			"previous": null,
			"results": [
				{"id": 1, "organization": 1, "user": {"id": 1, "email": "admin@example.org", "is_superuser": true}},
				{"id": 2, "organization": 1, "user": {"id": 5, "email": "alice@example.org", "is_superuser": false}}
			]
		}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOrganizations(t *testing.T) {
	server := newLabelStudioServer(t)
	ls := NewLabelStudio(server.URL+"/", "tok-123")

	orgs, err := ls.Organizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, Organization{ID: 1, Title: "Label Studio"}, orgs[0])
}

func TestOrganizationsBadToken(t *testing.T) {
	server := newLabelStudioServer(t)
	ls := NewLabelStudio(server.URL, "wrong")

	_, err := ls.Organizations(context.Background())
	assert.ErrorContains(t, err, "unexpected status 401")
}

func TestMembers(t *testing.T) {
	server := newLabelStudioServer(t)
	ls := NewLabelStudio(server.URL, "tok-123")

	members, err := ls.Members(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, Member{ID: 1, Email: "admin@example.org", IsSuperuser: true}, members[0])
	assert.Equal(t, Member{ID: 5, Email: "alice@example.org"}, members[1])
}

func TestUnreachableServer(t *testing.T) {
	ls := NewLabelStudio("http://127.0.0.1:1", "tok")
	_, err := ls.Organizations(context.Background())
	assert.Error(t, err)
}
