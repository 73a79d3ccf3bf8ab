// Package redis implementa el almacén de tokens e-CF sobre Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

const keyPrefix = "ecf:token:"

// TokenStore guarda el token de cada empresa en un hash con expiración igual al vencimiento del token.
type TokenStore struct {
	client *goredis.Client
}

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// NewTokenStore construye el almacén.
func NewTokenStore(client *goredis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Key devuelve la clave Redis del token de la empresa.
func Key(companyID string) string {
	return keyPrefix + companyID
}

// GetToken devuelve el token guardado; nil si no existe o ya expiró en Redis.
func (s *TokenStore) GetToken(ctx context.Context, companyID string) (*entity.ECFToken, error) {
	vals, err := s.client.HGetAll(ctx, Key(companyID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: leer token: %w", err)
	}
	if len(vals) == 0 || vals["token"] == "" {
		return nil, nil
	}
	exp, err := time.Parse(time.RFC3339Nano, vals["expires_at"])
	if err != nil {
		return nil, nil
	}
	return &entity.ECFToken{AccessToken: vals["token"], ExpiresAt: exp}, nil
}

// SaveToken guarda el token y programa la expiración de la clave.
func (s *TokenStore) SaveToken(ctx context.Context, companyID string, token entity.ECFToken) error {
	key := Key(companyID)
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key, "token", token.AccessToken, "expires_at", token.ExpiresAt.UTC().Format(time.RFC3339Nano))
		p.ExpireAt(ctx, key, token.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: guardar token: %w", err)
	}
	return nil
}
