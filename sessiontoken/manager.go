package sessiontoken

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWS algorithm used for session tokens.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// MinHS256KeyLength is the shortest HMAC key accepted.
const MinHS256KeyLength = 32

var (
	// ErrInvalidToken wraps every parse or verification failure.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrInvalidConfig is returned by NewManager.
	ErrInvalidConfig = errors.New("invalid session token configuration")
)

// Config configures a Manager.
type Config struct {
	SigningMethod SigningMethod
	// PrivateKey is the HMAC secret for HS256, or an Ed25519 private key
	// (raw or PEM) for signing.
	PrivateKey []byte
	// PublicKey is the Ed25519 verification key (raw or PEM).
	PublicKey []byte
	Issuer    string
	Audience  string
	Leeway    time.Duration
	// KeyID is written to the kid header. When VerifyKeys is set the kid
	// selects the verification key, which allows key rotation.
	KeyID      string
	VerifyKeys map[string][]byte
	// Now overrides the clock used for iat and exp checks.
	Now func() time.Time
}

// Claims is the payload of a session token.
type Claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// AccountID returns the subject claim.
func (c *Claims) AccountID() string { return c.Subject }

// Manager issues and verifies session tokens. Keys are decoded once by
// NewManager. Safe for concurrent use.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	parser  *jwt.Parser
	signKey any
	// verify holds keys by kid. The "" entry serves tokens when no
	// rotation set is configured.
	verify map[string]any
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: leeway must be within [0, 2m]", ErrInvalidConfig)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, verify: make(map[string]any, len(cfg.VerifyKeys)+1)}
	var decode func([]byte) (any, error)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < MinHS256KeyLength {
			return nil, fmt.Errorf("%w: hs256 key must be at least %d bytes", ErrInvalidConfig, MinHS256KeyLength)
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.verify[""] = cfg.PrivateKey
		decode = func(b []byte) (any, error) { return b, nil }
	case MethodEd25519:
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, fmt.Errorf("%w: ed25519 requires a public key or verify key set", ErrInvalidConfig)
		}
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			m.signKey = priv
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			m.verify[""] = pub
		}
		decode = func(b []byte) (any, error) { return parseEdPublicKey(b) }
	default:
		return nil, fmt.Errorf("%w: unsupported signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}

	if len(cfg.VerifyKeys) > 0 {
		// A rotation set replaces the single key and makes kid mandatory.
		m.verify = make(map[string]any, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, fmt.Errorf("%w: verify key map contains empty kid", ErrInvalidConfig)
			}
			key, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: verify key %q: %v", ErrInvalidConfig, kid, err)
			}
			m.verify[kid] = key
		}
		if _, ok := m.verify[cfg.KeyID]; cfg.KeyID != "" && !ok {
			return nil, fmt.Errorf("%w: KeyID is not present in VerifyKeys", ErrInvalidConfig)
		}
	} else if cfg.KeyID != "" {
		m.verify[cfg.KeyID] = m.verify[""]
		delete(m.verify, "")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}
	m.parser = jwt.NewParser(options...)
	return m, nil
}

// Issue signs a token for sessionID owned by accountID, valid until expiresAt.
func (m *Manager) Issue(sessionID, accountID string, expiresAt time.Time) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is empty")
	}
	if m.signKey == nil {
		return "", errors.New("manager has no signing key")
	}
	now := m.config.Now()
	if !expiresAt.After(now) {
		return "", errors.New("session token would already be expired")
	}

	claims := Claims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.signKey)
}

// Parse verifies tokenStr and returns its claims. Every failure wraps
// ErrInvalidToken.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenStr, claims, m.keyFor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SID == "" {
		return nil, fmt.Errorf("%w: missing sid", ErrInvalidToken)
	}
	return claims, nil
}

func (m *Manager) keyFor(t *jwt.Token) (any, error) {
	if t.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	kid, _ := t.Header["kid"].(string)
	key, ok := m.verify[kid]
	if !ok {
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return key, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
