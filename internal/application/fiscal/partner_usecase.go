package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
	"github.com/jhoicas/ecf-dgii/internal/domain"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
)

// PartnerUseCase alta de contactos fiscales y comprobante sugerido para sus ventas.
type PartnerUseCase struct {
	repo repository.PartnerStore
	now  func() time.Time
}

// NewPartnerUseCase construye el caso de uso.
func NewPartnerUseCase(repo repository.PartnerStore) *PartnerUseCase {
	return &PartnerUseCase{repo: repo, now: time.Now}
}

// Create registra un contacto. El RNC/Cédula de un contacto dominicano debe ser válido y
// no repetirse entre contactos principales; las sucursales comparten el del padre.
func (uc *PartnerUseCase) Create(ctx context.Context, companyID string, in dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	country := strings.ToUpper(strings.TrimSpace(in.CountryCode))
	if country == "" {
		country = "DO"
	}
	now := uc.now()
	p := &entity.Partner{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		ParentID:     strings.TrimSpace(in.ParentID),
		Name:         name,
		VAT:          strings.TrimSpace(in.VAT),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Street:       in.Street,
		Street2:      in.Street2,
		City:         in.City,
		ProvinceCode: in.ProvinceCode,
		CountryCode:  country,
		IsCompany:    in.IsCompany,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := domaindgii.ValidatePartnerVAT(p); err != nil {
		return nil, fmt.Errorf("%w: contacto %s", err, p.Name)
	}

	var parent *entity.Partner
	if p.ParentID != "" {
		var err error
		parent, err = uc.repo.GetByID(ctx, companyID, p.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: contacto padre %s", domain.ErrNotFound, p.ParentID)
		}
	} else if p.VAT != "" {
		existing, err := uc.repo.GetByVAT(ctx, companyID, p.VAT)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: ya existe un contacto con RNC %s", domain.ErrConflict, p.VAT)
		}
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	out := toPartnerResponse(p)
	out.Fiscal = fiscalInfo(p, parent)
	return &out, nil
}

// FiscalInfo devuelve el comprobante sugerido para vender al contacto y si sus datos
// fiscales alcanzan para emitirlo.
func (uc *PartnerUseCase) FiscalInfo(ctx context.Context, companyID, id string) (*dto.PartnerFiscalInfoResponse, error) {
	p, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	var parent *entity.Partner
	if p.ParentID != "" {
		if parent, err = uc.repo.GetByID(ctx, companyID, p.ParentID); err != nil {
			return nil, err
		}
	}
	out := fiscalInfo(p, parent)
	return &out, nil
}

func fiscalInfo(p, parent *entity.Partner) dto.PartnerFiscalInfoResponse {
	var parentPrefix string
	if parent != nil {
		parentPrefix = domaindgii.SuggestSaleFiscalType(parent, "")
	}
	prefix := domaindgii.SuggestSaleFiscalType(p, parentPrefix)
	out := dto.PartnerFiscalInfoResponse{
		PartnerID:           p.ID,
		SuggestedFiscalType: prefix,
		FiscalInfoRequired:  domaindgii.FiscalInfoRequired(prefix),
		VATValid:            true,
	}
	switch err := domaindgii.ValidatePartnerVAT(p); {
	case err != nil:
		out.VATValid, out.Message = false, err.Error()
	case out.FiscalInfoRequired && p.VAT == "":
		out.VATValid, out.Message = false, domain.ErrMissingTaxpayerID.Error()
	}
	return out
}

func toPartnerResponse(p *entity.Partner) dto.PartnerResponse {
	return dto.PartnerResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		ParentID:    p.ParentID,
		Name:        p.Name,
		VAT:         p.VAT,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address(),
		CountryCode: p.CountryCode,
		IsCompany:   p.IsCompany,
		CreatedAt:   p.CreatedAt,
	}
}
