package gauth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FirestoreAudience es la audiencia fija que Google exige en los JWT
// auto-firmados dirigidos a la API REST de Firestore.
const FirestoreAudience = "https://firestore.googleapis.com/"

const assertionTTL = time.Hour

// ErrInvalidPrivateKey marca errores de configuracion en la clave de la
// cuenta de servicio. Nunca se reintenta: una clave malformada no es una
// falla transitoria.
var ErrInvalidPrivateKey = errors.New("invalid service account private key")

// Signer emite assertions RS256 auto-firmadas para la cuenta de servicio.
type Signer struct {
	clientEmail string
	audience    string
	key         *rsa.PrivateKey
	now         func() time.Time
}

// NewSigner parsea la clave privada PEM (PKCS#8 o PKCS#1) y construye el
// firmador. Las secuencias literales `\n` del entorno se normalizan a
// saltos de linea reales antes de parsear.
func NewSigner(clientEmail, privateKeyPEM string) (*Signer, error) {
	if strings.TrimSpace(clientEmail) == "" {
		return nil, fmt.Errorf("%w: client email is required", ErrInvalidPrivateKey)
	}
	pem := strings.ReplaceAll(privateKeyPEM, `\n`, "\n")
	if strings.TrimSpace(pem) == "" {
		return nil, fmt.Errorf("%w: empty PEM", ErrInvalidPrivateKey)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return &Signer{
		clientEmail: clientEmail,
		audience:    FirestoreAudience,
		key:         key,
		now:         time.Now,
	}, nil
}

// Issue firma una assertion con iss=sub=cuenta de servicio, aud fija y
// exp exactamente una hora despues de iat. Devuelve el JWT compacto
// (tres segmentos base64url sin padding) y su vencimiento.
func (s *Signer) Issue() (string, time.Time, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(assertionTTL)
	// MapClaims para que aud serialice como string simple, que es la
	// forma que valida el endpoint de Google.
	claims := jwt.MapClaims{
		"iss": s.clientEmail,
		"sub": s.clientEmail,
		"aud": s.audience,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: sign: %v", ErrInvalidPrivateKey, err)
	}
	return signed, expiresAt, nil
}
