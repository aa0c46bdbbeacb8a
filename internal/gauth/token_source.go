package gauth

import (
	"sync"
	"time"
)

// refreshMargin es el margen de seguridad: el token en cache se descarta
// cuando queda menos que esto antes de su vencimiento.
const refreshMargin = 5 * time.Minute

// TokenSource entrega assertions firmadas reutilizando la ultima emitida
// hasta acercarse a su vencimiento. Evita firmar RSA en cada llamada
// saliente sin cambiar el comportamiento externo.
type TokenSource struct {
	signer *Signer
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource crea un TokenSource sobre el firmador dado.
func NewTokenSource(signer *Signer) *TokenSource {
	return &TokenSource{signer: signer, now: time.Now}
}

// Token devuelve una assertion vigente, firmando una nueva solo si la
// cacheada no existe o esta dentro del margen de refresco.
func (ts *TokenSource) Token() (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now().UTC()
	if ts.token != "" && now.Before(ts.expiresAt.Add(-refreshMargin)) {
		return ts.token, nil
	}

	token, expiresAt, err := ts.signer.Issue()
	if err != nil {
		return "", err
	}
	ts.token = token
	ts.expiresAt = expiresAt
	return token, nil
}
