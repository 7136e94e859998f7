// Package ledger implementa el cliente HTTP hacia el Ledger Service: el sistema
// de registro remoto del stock por sucursal, las ventas confirmadas, la
// resolución de escaneos y la autorización de supervisores.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/medlan/pharmacy-pos/internal/application/ports"
	"github.com/medlan/pharmacy-pos/internal/domain"
	"github.com/medlan/pharmacy-pos/internal/domain/entity"
	"github.com/medlan/pharmacy-pos/pkg/config"
)

// Client cliente resty del Ledger Service. Implementa ports.LedgerService y los
// puertos Resolver y ManagerAuthorizer de la compuerta de escaneo.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient construye el cliente a partir de la configuración.
func NewClient(cfg config.LedgerConfig, log zerolog.Logger) *Client {
	rc := resty.New()
	rc.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout())
	if cfg.APIKey != "" {
		rc.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{http: rc, log: log.With().Str("component", "ledger").Logger()}
}

// apiError cuerpo de error del Ledger Service.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// stockAck confirmación de una instrucción de stock.
type stockAck struct {
	Applied bool   `json:"applied"`
	Balance int    `json:"balance"`
	Ref     string `json:"ref"`
}

func (c *Client) postInstruction(ctx context.Context, path string, in ports.StockInstruction) error {
	ack := new(stockAck)
	apiErr := new(apiError)

	req := c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(ack).
		SetError(apiErr)
	if in.IdempotencyKey != "" {
		req.SetHeader("Idempotency-Key", in.IdempotencyKey)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", path, domain.ErrRemoteFailure, err)
	}
	if resp.IsError() {
		c.log.Error().Str("path", path).Int("status", resp.StatusCode()).
			Str("code", apiErr.Code).Msg("instrucción de stock rechazada")
		return fmt.Errorf("%s: %s: %w", path, apiErr.Message, domain.ErrRemoteFailure)
	}
	if !ack.Applied {
		return fmt.Errorf("%s: instrucción sin aplicar: %w", path, domain.ErrRemoteFailure)
	}
	return nil
}

// IncreaseStock suma stock en una sucursal.
func (c *Client) IncreaseStock(ctx context.Context, in ports.StockInstruction) error {
	return c.postInstruction(ctx, "/ledger/stock/increase", in)
}

// DecreaseStock descuenta stock en una sucursal.
func (c *Client) DecreaseStock(ctx context.Context, in ports.StockInstruction) error {
	return c.postInstruction(ctx, "/ledger/stock/decrease", in)
}

// saleAck confirmación del registro de una venta.
type saleAck struct {
	SaleID string `json:"sale_id"`
}

// CommitSale registra la venta como inmutable y devuelve su id remoto.
func (c *Client) CommitSale(ctx context.Context, sale *entity.Sale) (string, error) {
	ack := new(saleAck)
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sale).
		SetResult(ack).
		SetError(apiErr).
		SetHeader("Idempotency-Key", "sale:"+sale.ID).
		Post("/ledger/sales")
	if err != nil {
		return "", fmt.Errorf("registrar venta: %w: %v", domain.ErrRemoteFailure, err)
	}
	if resp.IsError() {
		c.log.Error().Int("status", resp.StatusCode()).Str("code", apiErr.Code).
			Msg("venta rechazada por el ledger")
		return "", fmt.Errorf("registrar venta: %s: %w", apiErr.Message, domain.ErrRemoteFailure)
	}
	return ack.SaleID, nil
}

// ResolveScan resuelve un código de barras en producto + alertas según contexto.
func (c *Client) ResolveScan(ctx context.Context, scanData, scanContext, branchID string) (*entity.ScanResult, error) {
	result := new(entity.ScanResult)
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"scan_data": scanData,
			"context":   scanContext,
			"branch_id": branchID,
		}).
		SetResult(result).
		SetError(apiErr).
		Post("/ledger/scan/process")
	if err != nil {
		return nil, fmt.Errorf("resolver escaneo: %w: %v", domain.ErrRemoteFailure, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resolver escaneo: %s: %w", apiErr.Message, domain.ErrRemoteFailure)
	}
	return result, nil
}

// authAck resultado de la autorización de supervisor.
type authAck struct {
	Authorized bool `json:"authorized"`
}

// AuthorizeOverride valida las credenciales de un supervisor para liberar un
// escaneo bloqueado. Un 401/403 del servicio es una autorización negada, no una
// falla remota.
func (c *Client) AuthorizeOverride(ctx context.Context, managerID, pin string) (bool, error) {
	ack := new(authAck)
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"manager_id": managerID, "pin": pin}).
		SetResult(ack).
		SetError(apiErr).
		Post("/ledger/auth/manager-override")
	if err != nil {
		return false, fmt.Errorf("autorizar override: %w: %v", domain.ErrRemoteFailure, err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("autorizar override: %s: %w", apiErr.Message, domain.ErrRemoteFailure)
	}
	return ack.Authorized, nil
}
