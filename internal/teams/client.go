// Package teams is a minimal Bot Framework connector client covering the
// three activity operations the relay needs: send, update, delete. No
// retries are performed; callers decide what a failure means.
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/notiteams/activity-api/internal/cards"
	"github.com/notiteams/activity-api/pkg/logging"
)

const (
	defaultServiceURL = "https://smba.trafficmanager.net/amer/"

	// ChannelID is the Bot Framework channel the relay talks to.
	ChannelID = "msteams"
)

var tracer = otel.Tracer("notiteams.internal.teams")

// Config controls how the connector client behaves.
type Config struct {
	ServiceURL string
	LoginURL   string

	AppID          string
	AppPassword    string
	AppCertificate string
	AppPrivateKey  string
	AppType        string
	TenantID       string

	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client talks to the Bot Framework connector on behalf of one bot identity.
type Client struct {
	serviceURL string
	appID      string
	httpClient *http.Client
	tokens     *tokenProvider
	logger     *logging.Logger
}

// New creates a configured Client. Password credentials win over
// certificate credentials when both are present.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, errors.New("teams: app id is required")
	}

	var creds credentials
	switch {
	case cfg.AppPassword != "":
		creds = passwordCredentials{appID: cfg.AppID, password: cfg.AppPassword}
	case cfg.AppCertificate != "" && cfg.AppPrivateKey != "":
		certCreds, err := newCertificateCredentials(cfg.AppID, cfg.AppCertificate, cfg.AppPrivateKey)
		if err != nil {
			return nil, err
		}
		creds = certCreds
	default:
		return nil, errors.New("teams: missing either MICROSOFT_APP_PASSWORD or " +
			"MICROSOFT_APP_CERTIFICATE and MICROSOFT_APP_PRIVATEKEY")
	}

	serviceURL := strings.TrimSpace(cfg.ServiceURL)
	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}
	serviceURL = strings.TrimRight(serviceURL, "/")

	loginURL := strings.TrimSpace(cfg.LoginURL)
	if loginURL == "" {
		loginURL = defaultLoginURL
	}

	tenant := botFrameworkTenant
	if strings.EqualFold(cfg.AppType, "SingleTenant") && cfg.TenantID != "" {
		tenant = cfg.TenantID
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		serviceURL: serviceURL,
		appID:      cfg.AppID,
		httpClient: httpClient,
		tokens:     newTokenProvider(httpClient, loginURL, tenant, creds),
		logger:     logger,
	}, nil
}

// resourceResponse is the connector's reply to send/update operations.
type resourceResponse struct {
	ID string `json:"id"`
}

// SendToConversation posts a new activity and returns the activity id the
// connector assigned.
func (c *Client) SendToConversation(ctx context.Context, conversationID string, activity cards.Activity) (string, error) {
	ctx, span := tracer.Start(ctx, "teams.send_to_conversation")
	span.SetAttributes(attribute.String("teams.conversation_id", conversationID))
	defer span.End()

	path := "/v3/conversations/" + url.PathEscape(conversationID) + "/activities"
	data, err := c.invoke(ctx, http.MethodPost, path, c.stamp(activity))
	if err != nil {
		return "", err
	}
	var res resourceResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return "", fmt.Errorf("teams: decode send response: %w", err)
	}
	if res.ID == "" {
		return "", errors.New("teams: send response missing activity id")
	}
	return res.ID, nil
}

// UpdateActivity replaces the content of an existing activity.
func (c *Client) UpdateActivity(ctx context.Context, conversationID, activityID string, activity cards.Activity) (string, error) {
	ctx, span := tracer.Start(ctx, "teams.update_activity")
	span.SetAttributes(
		attribute.String("teams.conversation_id", conversationID),
		attribute.String("teams.activity_id", activityID),
	)
	defer span.End()

	path := "/v3/conversations/" + url.PathEscape(conversationID) + "/activities/" + url.PathEscape(activityID)
	data, err := c.invoke(ctx, http.MethodPut, path, c.stamp(activity))
	if err != nil {
		return "", err
	}
	// Some connector deployments return an empty body on update.
	if len(bytes.TrimSpace(data)) == 0 {
		return activityID, nil
	}
	var res resourceResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return "", fmt.Errorf("teams: decode update response: %w", err)
	}
	if res.ID == "" {
		return activityID, nil
	}
	return res.ID, nil
}

// DeleteActivity removes an activity from the conversation.
func (c *Client) DeleteActivity(ctx context.Context, conversationID, activityID string) error {
	ctx, span := tracer.Start(ctx, "teams.delete_activity")
	span.SetAttributes(
		attribute.String("teams.conversation_id", conversationID),
		attribute.String("teams.activity_id", activityID),
	)
	defer span.End()

	path := "/v3/conversations/" + url.PathEscape(conversationID) + "/activities/" + url.PathEscape(activityID)
	_, err := c.invoke(ctx, http.MethodDelete, path, nil)
	return err
}

// stamp fills in the channel and bot identity the connector expects.
func (c *Client) stamp(activity cards.Activity) cards.Activity {
	if activity.ChannelID == "" {
		activity.ChannelID = ChannelID
	}
	if activity.From == nil {
		activity.From = &cards.ChannelAccount{ID: c.appID}
	}
	return activity
}

func (c *Client) invoke(ctx context.Context, method, path string, body any) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("teams: marshal activity: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serviceURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("teams: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("teams: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("teams: read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	apiErr := decodeAPIError(resp.StatusCode, data)
	c.logger.Warn("connector request rejected",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"code", apiErr.Code,
	)
	return nil, apiErr
}
