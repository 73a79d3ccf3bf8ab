package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
	"github.com/jhoicas/ecf-dgii/internal/domain"
)

type fakePartnerService struct {
	createErr error
	got       dto.CreatePartnerRequest
	companyID string
}

func (f *fakePartnerService) Create(_ context.Context, companyID string, in dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	f.got, f.companyID = in, companyID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dto.PartnerResponse{
		ID: "p-new", CompanyID: companyID, Name: in.Name, VAT: in.VAT, CountryCode: "DO",
		Fiscal: dto.PartnerFiscalInfoResponse{PartnerID: "p-new", SuggestedFiscalType: "B01", FiscalInfoRequired: true, VATValid: true},
	}, nil
}

func (f *fakePartnerService) FiscalInfo(_ context.Context, companyID, id string) (*dto.PartnerFiscalInfoResponse, error) {
	if id != "p1" || companyID != testCompanyID {
		return nil, domain.ErrNotFound
	}
	return &dto.PartnerFiscalInfoResponse{PartnerID: id, SuggestedFiscalType: "B14", FiscalInfoRequired: true, VATValid: true}, nil
}

func postPartner(t *testing.T, svc *fakePartnerService, role, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/partners", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	return do(t, newApp(appOpts{partners: svc}), req)
}

func TestPartnerHandler_CrearDevuelveComprobanteSugerido(t *testing.T) {
	svc := &fakePartnerService{}
	resp, body := postPartner(t, svc, "facturador", `{"name":"ACME SRL","vat":"131098193","is_company":true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.PartnerResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "B01", out.Fiscal.SuggestedFiscalType)
	assert.Equal(t, testCompanyID, svc.companyID)
	assert.True(t, svc.got.IsCompany)
}

func TestPartnerHandler_CrearErrores(t *testing.T) {
	invalid := fmt.Errorf("%w: contacto ACME SRL", domain.ErrInvalidTaxpayerID)
	resp, body := postPartner(t, &fakePartnerService{createErr: invalid}, "admin", `{"name":"ACME SRL","vat":"131098194"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "FISCAL_PRECONDITION", errorCode(t, body))

	resp, body = postPartner(t, &fakePartnerService{createErr: domain.ErrConflict}, "admin", `{"name":"ACME SRL","vat":"131098193"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(t, body))

	resp, body = postPartner(t, &fakePartnerService{}, "admin", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", errorCode(t, body))

	resp, _ = postPartner(t, &fakePartnerService{}, "contador", `{"name":"ACME SRL"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPartnerHandler_FiscalInfo(t *testing.T) {
	app := newApp(appOpts{partners: &fakePartnerService{}})

	resp, body := call(t, app, http.MethodGet, "/api/partners/p1/fiscal-info", "contador")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.PartnerFiscalInfoResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "B14", out.SuggestedFiscalType)

	resp, _ = call(t, app, http.MethodGet, "/api/partners/otro/fiscal-info", "contador")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
