// Package acclient is GC's internal HTTP client to AC's meeting-token
// endpoint, authenticated with the token internal/common/tokenmanager
// keeps fresh.
package acclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/tokenmanager"
)

const requestTimeout = 10 * time.Second

type Client struct {
	internalURL string
	tokens      *tokenmanager.Manager
	httpClient  *http.Client
}

func New(internalURL string, tokens *tokenmanager.Manager) *Client {
	return &Client{internalURL: internalURL, tokens: tokens, httpClient: &http.Client{Timeout: requestTimeout}}
}

type MeetingTokenRequest struct {
	Subject         string   `json:"subject"`
	MeetingID       string   `json:"meeting_id"`
	MeetingOrgID    string   `json:"meeting_org_id"`
	HomeOrgID       string   `json:"home_org_id"`
	ParticipantType string   `json:"participant_type"`
	Role            string   `json:"role"`
	Capabilities    []string `json:"capabilities"`
}

type MeetingTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// IssueMeetingToken calls AC's scope-guarded internal endpoint on behalf of
// a client joining a meeting.
func (c *Client) IssueMeetingToken(ctx context.Context, req *MeetingTokenRequest) (*MeetingTokenResponse, error) {
	token, ok := c.tokens.Current()
	if !ok {
		return nil, cperr.Newf(cperr.ServiceUnavailable, "no service token available")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, cperr.New(cperr.Internal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.internalURL+"/v1/internal/meeting-token", bytes.NewReader(body))
	if err != nil {
		return nil, cperr.New(cperr.Internal, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, cperr.New(cperr.ServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, cperr.Newf(cperr.ServiceUnavailable, "ac rejected meeting-token request: %s", cperr.Sanitize(fmt.Sprintf("%d %s", resp.StatusCode, string(b))))
	}

	var out MeetingTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, cperr.New(cperr.ServiceUnavailable, err)
	}
	return &out, nil
}
