package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpclient "property-chat/internal/common/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRMClient_CreateLead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v2/Leads", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken tok", r.Header.Get("Authorization"))

		var body struct {
			Data []Lead `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "9876543210", body.Data[0].Mobile)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","details":{"id":"4150868000000224005"},"message":"record added","status":"success"}]}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL+"/", "tok", time.Second)
	id, err := c.CreateLead(context.Background(), &Lead{LastName: "Chat Visitor", Mobile: "9876543210", Source: "Chat"})
	require.NoError(t, err)
	assert.Equal(t, "4150868000000224005", id)
}

func TestCRMClient_CreateLeadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"MANDATORY_NOT_FOUND","details":{},"message":"required field not found","status":"error"}]}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL, "tok", time.Second)
	_, err := c.CreateLead(context.Background(), &Lead{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANDATORY_NOT_FOUND")
}

func TestCRMClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"INVALID_TOKEN"}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL, "expired", time.Second)
	_, err := c.CreateLead(context.Background(), &Lead{LastName: "x"})

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestCRMClient_SearchLeadsByPhone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/Leads/search", r.URL.Path)
		if r.URL.Query().Get("phone") == "9876543210" {
			_, _ = w.Write([]byte(`{"data":[{"id":"77","Last_Name":"Chat Visitor","Mobile":"9876543210"}]}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL, "tok", time.Second)

	found, err := c.SearchLeadsByPhone(context.Background(), "9876543210")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "77", found[0].ID)

	none, err := c.SearchLeadsByPhone(context.Background(), "9000000000")
	require.NoError(t, err)
	assert.Empty(t, none)
}
