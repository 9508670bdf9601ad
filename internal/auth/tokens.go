// Пакет auth — выпуск и проверка access token (JWT RS256), публикация JWKS,
// хеширование паролей.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// Claims — claims access token PAVIAN Registry.
type Claims struct {
	jwt.RegisteredClaims
	// Email — email пользователя на момент выпуска.
	Email string `json:"email"`
	// Name — имя пользователя на момент выпуска.
	Name string `json:"name"`
	// Role — роль пользователя на момент выпуска.
	Role string `json:"role"`
}

// TokenIssuer выпускает access token и отдаёт публичные ключи (JWKS)
// для их проверки.
type TokenIssuer struct {
	key     *rsa.PrivateKey
	keyID   string
	issuer  string
	ttl     time.Duration
	storage jwkset.Storage
	kf      keyfunc.Keyfunc
	now     func() time.Time
}

// NewTokenIssuer создаёт издателя токенов. Публичный ключ записывается
// в in-memory JWKS storage, из которого keyfunc берёт ключ для проверки.
func NewTokenIssuer(ctx context.Context, key *rsa.PrivateKey, keyID, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	jwk, err := jwkset.NewJWKFromKey(&key.PublicKey, jwkset.JWKOptions{
		Metadata: jwkset.JWKMetadataOptions{
			ALG: jwkset.AlgRS256,
			KID: keyID,
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWK: %w", err)
	}

	storage := jwkset.NewMemoryStorage()
	if err := storage.KeyWrite(ctx, jwk); err != nil {
		return nil, fmt.Errorf("запись JWK в storage: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &TokenIssuer{
		key:     key,
		keyID:   keyID,
		issuer:  issuer,
		ttl:     ttl,
		storage: storage,
		kf:      kf,
		now:     time.Now,
	}, nil
}

// Issue выпускает подписанный access token для пользователя.
func (ti *TokenIssuer) Issue(u *model.User) (string, error) {
	now := ti.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = ti.keyID

	signed, err := token.SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

// Keyfunc возвращает keyfunc для проверки подписи выпущенных токенов.
func (ti *TokenIssuer) Keyfunc() keyfunc.Keyfunc {
	return ti.kf
}

// Issuer возвращает значение iss выпускаемых токенов.
func (ti *TokenIssuer) Issuer() string {
	return ti.issuer
}

// JWKS возвращает публичный JWK Set в JSON.
func (ti *TokenIssuer) JWKS(ctx context.Context) (json.RawMessage, error) {
	return ti.storage.JSONPublic(ctx)
}

// LoadOrGenerateKey читает приватный RSA-ключ из PEM-файла (PKCS#1 или PKCS#8).
// При пустом path генерирует ключ в памяти: токены не переживут рестарт.
func LoadOrGenerateKey(path string, logger *slog.Logger) (*rsa.PrivateKey, error) {
	if path == "" {
		logger.Warn("PR_JWT_PRIVATE_KEY_PATH не задан, сгенерирован временный RSA-ключ: токены станут недействительны после рестарта")
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("генерация RSA-ключа: %w", err)
		}
		return key, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение ключа %s: %w", path, err)
	}
	return ParsePrivateKeyPEM(data)
}

// ParsePrivateKeyPEM разбирает PEM с приватным RSA-ключом.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("PEM-блок не найден")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("разбор приватного ключа: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("ключ не является RSA")
	}
	return key, nil
}
