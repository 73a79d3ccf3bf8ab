package ecf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/internal/observability/metrics"
)

// Endpoints por defecto del conector e-CF.
const (
	DefaultAuthURL    = "https://docs.opengeekslab.com.do/external/auth/iniciar-sesion"
	DefaultProcessURL = "https://docs.opengeekslab.com.do/internal/einvoice_json/procesarjson/"
)

// ClientConfig endpoints y timeouts del conector.
type ClientConfig struct {
	AuthURL        string
	ProcessURL     string
	AuthTimeout    time.Duration
	ProcessTimeout time.Duration
}

// Client envía e-CF al conector, autenticándose con las credenciales de cada empresa.
// El token y su vencimiento se guardan en el TokenStore inyectado.
type Client struct {
	cfg         ClientConfig
	tokens      repository.ECFTokenStore
	authHTTP    *http.Client
	processHTTP *http.Client
	metrics     *metrics.ECFMetrics
	log         zerolog.Logger
	now         func() time.Time
}

// NewClient construye el cliente. m puede ser nil.
func NewClient(cfg ClientConfig, tokens repository.ECFTokenStore, m *metrics.ECFMetrics, log zerolog.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.ProcessURL == "" {
		cfg.ProcessURL = DefaultProcessURL
	}
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = 30 * time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 60 * time.Second
	}
	return &Client{
		cfg:         cfg,
		tokens:      tokens,
		authHTTP:    &http.Client{Timeout: cfg.AuthTimeout},
		processHTTP: &http.Client{Timeout: cfg.ProcessTimeout},
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// ── Autenticación ─────────────────────────────────────────────────────────────

type authResponse struct {
	Data *struct {
		AccessToken string     `json:"accessToken"`
		ExpiresIn   flexString `json:"expiresIn"`
	} `json:"data"`
}

// Authenticate obtiene un token nuevo y lo guarda con su vencimiento absoluto.
func (c *Client) Authenticate(ctx context.Context, company *entity.Company) (string, error) {
	token, err := c.authenticate(ctx, company)
	c.metrics.ObserveAuth(err)
	if err != nil {
		c.log.Error().Err(err).Str("company_id", company.ID).Msg("ecf: autenticación fallida")
		return "", err
	}
	return token, nil
}

func (c *Client) authenticate(ctx context.Context, company *entity.Company) (string, error) {
	if !company.HasECFCredentials() {
		return "", &ProtocolError{Stage: StageAuth, Kind: KindCredentials, Err: errMissingCredentials}
	}

	form := url.Values{}
	form.Set("username_email", company.ECFUsername)
	form.Set("password", company.ECFPassword)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ecf: crear request de autenticación: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	status, body, err := do(c.authHTTP, req)
	if err != nil {
		return "", &ProtocolError{Stage: StageAuth, Kind: KindNetwork, Err: err}
	}
	if status != http.StatusOK {
		return "", &ProtocolError{Stage: StageAuth, Kind: KindStatus, StatusCode: status, Raw: string(body)}
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProtocolError{Stage: StageAuth, Kind: KindDecode, StatusCode: status, Raw: string(body), Err: err}
	}
	if resp.Data == nil || resp.Data.AccessToken == "" || resp.Data.ExpiresIn == "" {
		return "", &ProtocolError{Stage: StageAuth, Kind: KindShape, StatusCode: status, Raw: string(body), Err: errMissingToken}
	}
	ttl, ok := parseExpiresIn(resp.Data.ExpiresIn)
	if !ok {
		return "", &ProtocolError{Stage: StageAuth, Kind: KindShape, StatusCode: status, Raw: string(body), Err: errInvalidExpiresIn}
	}

	tok := entity.ECFToken{AccessToken: resp.Data.AccessToken, ExpiresAt: c.now().UTC().Add(ttl)}
	if err := c.tokens.SaveToken(ctx, company.ID, tok); err != nil {
		return "", fmt.Errorf("ecf: guardar token: %w", err)
	}
	c.log.Debug().Str("company_id", company.ID).Time("expires_at", tok.ExpiresAt).Msg("ecf: token renovado")
	return tok.AccessToken, nil
}

// ── Envío ─────────────────────────────────────────────────────────────────────

// Submit envía el JSON del e-CF y devuelve la respuesta interpretada.
// Si el token guardado no sirve se autentica antes; ante un 401 descarta el token,
// se reautentica y reintenta una sola vez.
func (c *Client) Submit(ctx context.Context, company *entity.Company, payload []byte) (*Outcome, error) {
	start := c.now()
	out, err := c.submit(ctx, company, payload)
	c.metrics.ObserveSubmission(outcomeLabel(out, err), c.now().Sub(start))
	return out, err
}

func (c *Client) submit(ctx context.Context, company *entity.Company, payload []byte) (*Outcome, error) {
	token, err := c.currentToken(ctx, company)
	if err != nil {
		return nil, err
	}

	status, body, err := c.process(ctx, token, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.log.Warn().Str("company_id", company.ID).Msg("ecf: token rechazado, reautenticando")
		c.metrics.ObserveRetry()
		if cl, ok := c.tokens.(tokenClearer); ok {
			cl.Clear(company.ID)
		}
		if token, err = c.Authenticate(ctx, company); err != nil {
			return nil, err
		}
		if status, body, err = c.process(ctx, token, payload); err != nil {
			return nil, err
		}
	}
	if status < 200 || status >= 300 {
		c.log.Error().Str("company_id", company.ID).Int("status", status).Msg("ecf: error procesando e-CF")
		return nil, &ProtocolError{Stage: StageProcess, Kind: KindStatus, StatusCode: status, Raw: string(body)}
	}
	if !json.Valid(body) {
		return nil, &ProtocolError{Stage: StageProcess, Kind: KindDecode, StatusCode: status, Raw: string(body)}
	}
	return Interpret(body)
}

// tokenClearer almacenes que pueden descartar el token de una empresa.
type tokenClearer interface {
	Clear(companyID string)
}

func (c *Client) currentToken(ctx context.Context, company *entity.Company) (string, error) {
	tok, err := c.tokens.GetToken(ctx, company.ID)
	if err != nil {
		return "", fmt.Errorf("ecf: leer token: %w", err)
	}
	if tok.Valid(c.now()) {
		return tok.AccessToken, nil
	}
	return c.Authenticate(ctx, company)
}

func (c *Client) process(ctx context.Context, token string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ProcessURL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("ecf: crear request de procesamiento: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := do(c.processHTTP, req)
	if err != nil {
		return 0, nil, &ProtocolError{Stage: StageProcess, Kind: KindNetwork, Err: err}
	}
	return status, body, nil
}

func do(client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("leer respuesta: %w", err)
	}
	return resp.StatusCode, body, nil
}

// outcomeLabel etiqueta de baja cardinalidad para las métricas de envío.
func outcomeLabel(out *Outcome, err error) string {
	var pe *ProtocolError
	switch {
	case errors.As(err, &pe):
		return pe.Stage + "_" + pe.Kind
	case err != nil:
		return "internal_error"
	case out == nil:
		return string(DecisionUnknown)
	}
	return string(out.Decision)
}
