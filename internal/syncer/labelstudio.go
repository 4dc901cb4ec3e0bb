// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Organization is one Label Studio organization.
type Organization struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Member is one organization member.
type Member struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
}

// LabelStudio is a minimal client for the membership endpoints.
type LabelStudio struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewLabelStudio returns a client for the given server.
func NewLabelStudio(baseURL, token string) *LabelStudio {
	return &LabelStudio{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Organizations lists every organization visible to the token.
func (ls *LabelStudio) Organizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := ls.get(ctx, "/api/organizations", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Members lists the users of one organization.
func (ls *LabelStudio) Members(ctx context.Context, orgID int) ([]Member, error) {
	var page struct {
		Results []struct {
			User Member `json:"user"`
		} `json:"results"`
	}
	if err := ls.get(ctx, fmt.Sprintf("/api/organizations/%d/memberships", orgID), &page); err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(page.Results))
	for _, result := range page.Results {
		members = append(members, result.User)
	}
	return members, nil
}

func (ls *LabelStudio) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ls.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Token "+ls.token)

	resp, err := ls.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("requesting %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
