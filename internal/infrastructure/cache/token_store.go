// Package cache implementa almacenes en memoria para el proceso actual.
package cache

import (
	"context"
	"sync"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// TokenStore guarda en memoria el token e-CF de cada empresa. Seguro para uso concurrente.
// Los tokens se pierden al reiniciar; útil en desarrollo y tests.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]entity.ECFToken
}

// NewTokenStore crea un almacén vacío.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: map[string]entity.ECFToken{}}
}

// GetToken devuelve una copia del token de la empresa; nil si no hay.
func (s *TokenStore) GetToken(_ context.Context, companyID string) (*entity.ECFToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[companyID]
	if !ok {
		return nil, nil
	}
	return &tok, nil
}

// SaveToken reemplaza el token de la empresa.
func (s *TokenStore) SaveToken(_ context.Context, companyID string, token entity.ECFToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[companyID] = token
	return nil
}

// Clear elimina el token de la empresa.
func (s *TokenStore) Clear(companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, companyID)
}
