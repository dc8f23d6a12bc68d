package sheets

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"
	jwtBearerGrant   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL     = time.Hour
	refreshSkew      = time.Minute
)

// ServiceAccount exchanges a signed JWT assertion for access tokens and
// caches them until shortly before expiry.
type ServiceAccount struct {
	email    string
	key      *rsa.PrivateKey
	tokenURL string
	http     *resty.Client
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// NewServiceAccount parses the PEM key. Escaped "\n" sequences, as found in
// single-line environment variables, are unescaped first.
func NewServiceAccount(email, privateKeyPEM, tokenURL string) (*ServiceAccount, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("sheets: service account email required")
	}
	pem := strings.ReplaceAll(privateKeyPEM, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("sheets: parse private key: %w", err)
	}
	return &ServiceAccount{
		email:    email,
		key:      key,
		tokenURL: tokenURL,
		http:     resty.New().SetTimeout(10 * time.Second),
		now:      time.Now,
	}, nil
}

// Token returns a cached access token or fetches a new one.
func (s *ServiceAccount) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.expiry.Add(-refreshSkew)) {
		return s.token, nil
	}

	claims := jwt.MapClaims{
		"iss":   s.email,
		"scope": spreadsheetScope,
		"aud":   s.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sheets: sign assertion: %w", err)
	}

	var result tokenResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		SetResult(&result).
		Post(s.tokenURL)
	if err != nil {
		return "", fmt.Errorf("sheets: token exchange: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("sheets: token exchange: status %d", resp.StatusCode())
	}
	if result.AccessToken == "" {
		return "", errors.New("sheets: token exchange: empty access token")
	}

	s.token = result.AccessToken
	s.expiry = now.Add(time.Duration(result.ExpiresIn) * time.Second)
	return s.token, nil
}
