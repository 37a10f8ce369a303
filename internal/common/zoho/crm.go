package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "property-chat/internal/common/http"
)

type CRMClient struct {
	oauthToken string
	baseURL    string
	httpClient *httpclient.Client
}

// Lead is the subset of the Zoho CRM Leads module the chat service writes.
type Lead struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Mobile      string `json:"Mobile,omitempty"`
	City        string `json:"City,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Description string `json:"Description,omitempty"`
}

type upsertResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/") + "/crm/v2",
		httpClient: httpclient.NewClient(timeout),
	}
}

func (c *CRMClient) headers() map[string]string {
	return map[string]string{"Authorization": "Zoho-oauthtoken " + c.oauthToken}
}

// CreateLead inserts one lead and returns its CRM id.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	payload := map[string]interface{}{
		"data": []Lead{*lead},
	}

	var resp upsertResponse
	if err := c.httpClient.DoJSON(ctx, http.MethodPost, c.baseURL+"/Leads", c.headers(), payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead creation failed: %s (%s)", resp.Data[0].Message, resp.Data[0].Code)
	}

	return resp.Data[0].Details.ID, nil
}

// SearchLeadsByPhone returns existing leads whose phone or mobile matches.
// Zoho answers 204 with an empty body when nothing matches.
func (c *CRMClient) SearchLeadsByPhone(ctx context.Context, phone string) ([]Lead, error) {
	endpoint := fmt.Sprintf("%s/Leads/search?phone=%s", c.baseURL, url.QueryEscape(phone))

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := c.httpClient.DoJSON(ctx, http.MethodGet, endpoint, c.headers(), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to search leads: %w", err)
	}
	return result.Data, nil
}
