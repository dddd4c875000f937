package externalprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProviderGoogle identifies Google as the source of an ExternalUserInfo
const ProviderGoogle = "google"

const (
	// DefaultTokenInfoURL is Google's ID token introspection endpoint
	DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	DefaultTimeout      = 10 * time.Second
)

var (
	ErrInvalidCredential = errors.New("invalid google credential")
	ErrAudienceMismatch  = errors.New("google token audience mismatch")
	ErrIncompleteProfile = errors.New("incomplete google profile")
)

// ExternalUserInfo represents normalized user information from external providers
type ExternalUserInfo struct {
	ProviderID    string `json:"provider_id"`
	ExternalID    string `json:"external_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
}

// Verifier checks a credential issued by an external provider
type Verifier interface {
	Verify(ctx context.Context, credential string) (*ExternalUserInfo, error)
}

// tokenInfo is the tokeninfo response. Google encodes every value as a string.
type tokenInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Aud           string `json:"aud"`
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
}

// VerifierOption configures a GoogleVerifier
type VerifierOption func(*GoogleVerifier)

// WithTokenInfoURL overrides DefaultTokenInfoURL
func WithTokenInfoURL(tokenInfoURL string) VerifierOption {
	return func(v *GoogleVerifier) {
		if tokenInfoURL != "" {
			v.tokenInfoURL = tokenInfoURL
		}
	}
}

// WithTimeout sets the timeout of the whole tokeninfo call
func WithTimeout(timeout time.Duration) VerifierOption {
	return func(v *GoogleVerifier) {
		if timeout > 0 {
			v.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient sets the HTTP client for tokeninfo calls
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *GoogleVerifier) {
		v.httpClient = client
	}
}

// NewGoogleVerifier creates a verifier. An empty clientID disables the
// audience check.
func NewGoogleVerifier(clientID string, opts ...VerifierOption) *GoogleVerifier {
	v := &GoogleVerifier{
		clientID:     clientID,
		tokenInfoURL: DefaultTokenInfoURL,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify calls tokeninfo once for credential. There are no retries.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*ExternalUserInfo, error) {
	if credential == "" {
		return nil, ErrInvalidCredential
	}

	endpoint, err := url.Parse(v.tokenInfoURL)
	if err != nil {
		return nil, fmt.Errorf("invalid tokeninfo url: %w", err)
	}
	query := endpoint.Query()
	query.Set("id_token", credential)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		slog.Warn("Google tokeninfo request failed", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The body may echo the credential; it is drained, never logged.
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.Info("Google tokeninfo rejected credential", "status", resp.StatusCode)
		return nil, ErrInvalidCredential
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: unreadable tokeninfo response", ErrInvalidCredential)
	}

	if v.clientID != "" && info.Aud != v.clientID {
		slog.Warn("Google token issued for another client", "aud", info.Aud)
		return nil, ErrAudienceMismatch
	}

	return toUserInfo(info)
}

func toUserInfo(info tokenInfo) (*ExternalUserInfo, error) {
	if info.Sub == "" || info.Email == "" {
		return nil, ErrIncompleteProfile
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}

	return &ExternalUserInfo{
		ProviderID:    ProviderGoogle,
		ExternalID:    info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		Name:          name,
		Picture:       info.Picture,
	}, nil
}
