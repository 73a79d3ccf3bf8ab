package repository

import (
	"context"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// ECFTokenStore guarda el token del conector e-CF por empresa.
type ECFTokenStore interface {
	// GetToken devuelve el token guardado; nil si no hay.
	GetToken(ctx context.Context, companyID string) (*entity.ECFToken, error)
	SaveToken(ctx context.Context, companyID string, token entity.ECFToken) error
}
