// Package linkedin drives the LinkedIn OAuth 2.0 / OpenID Connect exchange
// used for alumni verification: authorization-code redirect, one-shot token
// exchange, and the userinfo profile fetch.
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"golang.org/x/oauth2"
	oauthlinkedin "golang.org/x/oauth2/linkedin"
)

const userInfoURL = "https://api.linkedin.com/v2/userinfo"

// remoteTimeout bounds both outbound calls. The token exchange must never be
// retried after a timeout: the authorization code is single-use.
const remoteTimeout = 10 * time.Second

// Profile is the explicit schema of what the provider returns. Subject,
// FirstName, LastName and Email are required by the verifier; everything else
// is optional. Education is only populated when the provider grants the
// education projection, which the basic "openid profile email" scopes do not.
type Profile struct {
	Subject   string
	FirstName string
	LastName  string
	Email     string
	Picture   string
	Education []Education
}

// Education is one school affiliation claimed by the profile.
type Education struct {
	SchoolName   string
	DegreeName   string
	FieldOfStudy string
}

// Client performs the server-to-server half of the OAuth flow.
type Client struct {
	conf        *oauth2.Config
	userInfoURL string
}

func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     oauthlinkedin.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// NewClientWithEndpoints wires the client to a non-default provider.
// Used by tests against an httptest server.
func NewClientWithEndpoints(clientID, clientSecret, redirectURL, authURL, tokenURL, userInfoURL string) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		userInfoURL: userInfoURL,
	}
}

// AuthCodeURL builds the provider authorization URL carrying the anti-forgery
// state value.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token, once. Any
// failure is terminal for the flow; the code is spent either way.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("token exchange: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned no access token: %w", domain.ErrUpstreamUnavailable)
	}
	return tok.AccessToken, nil
}

// userInfoPayload mirrors the OIDC userinfo response. Missing fields stay
// zero-valued; the verifier decides what is required.
type userInfoPayload struct {
	Sub        string `json:"sub"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
	Educations []struct {
		SchoolName   string `json:"schoolName"`
		DegreeName   string `json:"degreeName"`
		FieldOfStudy string `json:"fieldOfStudy"`
	} `json:"educations"`
}

// FetchProfile retrieves the minimal profile for the access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	var payload userInfoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	p := &Profile{
		Subject:   payload.Sub,
		FirstName: payload.GivenName,
		LastName:  payload.FamilyName,
		Email:     payload.Email,
		Picture:   payload.Picture,
	}
	for _, e := range payload.Educations {
		p.Education = append(p.Education, Education{
			SchoolName:   e.SchoolName,
			DegreeName:   e.DegreeName,
			FieldOfStudy: e.FieldOfStudy,
		})
	}
	return p, nil
}
