package sheets

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/halaqahq/halaqa/internal/config"
)

const (
	googleTokenURL = "https://oauth2.googleapis.com/token"
	sheetsScope    = "https://www.googleapis.com/auth/spreadsheets"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// RuntimeTokenSource serves the credential cached in the runtime
// configuration (set at sign-in from the client's OAuth flow) and, when a
// service account is configured, mints a fresh token through the signed-JWT
// grant once the cached one expires.
type RuntimeTokenSource struct {
	runtime  *config.Runtime
	email    string
	key      *rsa.PrivateKey
	tokenURL string
	http     *http.Client
}

// NewRuntimeTokenSource parses the optional service-account key. An empty
// email/key pair is fine: the source then only serves client-provided
// tokens.
func NewRuntimeTokenSource(rt *config.Runtime, email, pemKey string) (*RuntimeTokenSource, error) {
	src := &RuntimeTokenSource{
		runtime:  rt,
		email:    email,
		tokenURL: googleTokenURL,
		http:     &http.Client{Timeout: 15 * time.Second},
	}

	if email != "" && pemKey != "" {
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemKey))
		if err != nil {
			return nil, fmt.Errorf("parsing service account key: %w", err)
		}

		src.key = key
	}

	return src, nil
}

func (s *RuntimeTokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := s.runtime.AccessToken(); ok {
		return token, nil
	}

	if s.key == nil {
		return "", fmt.Errorf("no valid credential and no service account configured")
	}

	token, expiresIn, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}

	s.runtime.SetAccessToken(token, expiresIn)

	return token, nil
}

// exchange performs the OAuth JWT-bearer grant: a short-lived RS256
// assertion signed with the service-account key, traded for an access
// token.
func (s *RuntimeTokenSource) exchange(ctx context.Context) (string, time.Duration, error) {
	now := time.Now()

	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   s.email,
		"scope": sheetsScope,
		"aud":   s.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})

	signed, err := assertion.SignedString(s.key)
	if err != nil {
		return "", 0, fmt.Errorf("signing token assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {signed},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("building token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("exchanging token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("token endpoint: %d %s", resp.StatusCode, msg)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("decoding token response: %w", err)
	}

	return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
}
