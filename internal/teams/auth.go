package teams

import (
	"context"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultLoginURL = "https://login.microsoftonline.com"

	// Multi-tenant bots authenticate against the shared Bot Framework tenant.
	botFrameworkTenant = "botframework.com"

	tokenScope          = "https://api.botframework.com/.default"
	clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	assertionLifetime = 5 * time.Minute
	tokenRefreshSlack = time.Minute
)

// credentials produces the token-request form for one credential kind.
type credentials interface {
	tokenForm(tokenURL string) (url.Values, error)
}

type passwordCredentials struct {
	appID    string
	password string
}

func (c passwordCredentials) tokenForm(string) (url.Values, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.appID)
	form.Set("client_secret", c.password)
	form.Set("scope", tokenScope)
	return form, nil
}

type certificateCredentials struct {
	appID      string
	thumbprint []byte
	key        *rsa.PrivateKey
}

// newCertificateCredentials builds certificate credentials from the
// base64-wrapped PEM certificate and private key the environment carries.
// The thumbprint is the SHA-1 of the DER certificate, as AAD requires.
func newCertificateCredentials(appID, certB64, keyB64 string) (*certificateCredentials, error) {
	certPEM, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, fmt.Errorf("teams: decode certificate: %w", err)
	}
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("teams: certificate is not PEM-encoded")
	}
	sum := sha1.Sum(block.Bytes)

	keyPEM, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("teams: decode private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("teams: parse private key: %w", err)
	}

	return &certificateCredentials{
		appID:      appID,
		thumbprint: sum[:],
		key:        key,
	}, nil
}

func (c *certificateCredentials) tokenForm(tokenURL string) (url.Values, error) {
	assertion, err := c.signAssertion(tokenURL)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.appID)
	form.Set("scope", tokenScope)
	form.Set("client_assertion_type", clientAssertionType)
	form.Set("client_assertion", assertion)
	return form, nil
}

func (c *certificateCredentials) signAssertion(tokenURL string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": c.appID,
		"sub": c.appID,
		"aud": tokenURL,
		"jti": uuid.NewString(),
		"nbf": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	})
	token.Header["x5t"] = base64.RawURLEncoding.EncodeToString(c.thumbprint)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("teams: sign client assertion: %w", err)
	}
	return signed, nil
}

// tokenProvider fetches and caches app tokens for the connector.
type tokenProvider struct {
	httpClient *http.Client
	tokenURL   string
	creds      credentials

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenProvider(httpClient *http.Client, loginURL, tenant string, creds credentials) *tokenProvider {
	base := strings.TrimRight(loginURL, "/")
	return &tokenProvider{
		httpClient: httpClient,
		tokenURL:   base + "/" + tenant + "/oauth2/v2.0/token",
		creds:      creds,
	}
}

// Token returns a cached token, refreshing it when close to expiry.
func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Until(p.expiry) > tokenRefreshSlack {
		return p.token, nil
	}

	form, err := p.creds.tokenForm(p.tokenURL)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("teams: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("teams: token request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("teams: read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp.StatusCode, data)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("teams: decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("teams: token response missing access_token")
	}

	p.token = parsed.AccessToken
	p.expiry = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return p.token, nil
}
