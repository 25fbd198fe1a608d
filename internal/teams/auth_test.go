package teams

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordCredentialsForm(t *testing.T) {
	creds := passwordCredentials{appID: "app-1", password: "s3cret"}
	form, err := creds.tokenForm("https://login.example/token")
	require.NoError(t, err)

	assert.Equal(t, "client_credentials", form.Get("grant_type"))
	assert.Equal(t, "app-1", form.Get("client_id"))
	assert.Equal(t, "s3cret", form.Get("client_secret"))
	assert.Equal(t, tokenScope, form.Get("scope"))
}

// selfSignedCert returns base64-wrapped PEM cert/key pairs the way the
// environment supplies them, plus the DER bytes for thumbprint checks.
func selfSignedCert(t *testing.T) (certB64, keyB64 string, der []byte, key *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "activity-api-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err = x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return base64.StdEncoding.EncodeToString(certPEM), base64.StdEncoding.EncodeToString(keyPEM), der, key
}

func TestCertificateCredentialsAssertion(t *testing.T) {
	certB64, keyB64, der, key := selfSignedCert(t)

	creds, err := newCertificateCredentials("app-1", certB64, keyB64)
	require.NoError(t, err)

	tokenURL := "https://login.example/tenant/oauth2/v2.0/token"
	form, err := creds.tokenForm(tokenURL)
	require.NoError(t, err)

	assert.Equal(t, clientAssertionType, form.Get("client_assertion_type"))
	assert.Empty(t, form.Get("client_secret"))

	assertion := form.Get("client_assertion")
	require.NotEmpty(t, assertion)

	parsed, err := jwt.Parse(assertion, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	sum := sha1.Sum(der)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), parsed.Header["x5t"])

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "app-1", claims["iss"])
	assert.Equal(t, "app-1", claims["sub"])
	assert.Equal(t, tokenURL, claims["aud"])
	assert.NotEmpty(t, claims["jti"])
}

func TestNewCertificateCredentialsRejectsGarbage(t *testing.T) {
	_, _, _, _ = selfSignedCert(t)

	_, err := newCertificateCredentials("app-1", "not-base64!!", "also-bad")
	require.Error(t, err)

	certB64, _, _, _ := selfSignedCert(t)
	_, err = newCertificateCredentials("app-1", certB64, base64.StdEncoding.EncodeToString([]byte("not a key")))
	require.Error(t, err)
}

func TestTokenProviderURL(t *testing.T) {
	p := newTokenProvider(nil, "https://login.example/", "botframework.com", nil)
	assert.Equal(t, "https://login.example/botframework.com/oauth2/v2.0/token", p.tokenURL)
}
