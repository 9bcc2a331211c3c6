package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/transactions"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// TransactionHandler lectura del ledger: listado, detalle, factura, auditoría y PDF.
type TransactionHandler struct {
	uc  *transactions.LedgerUseCase
	log *logger.Logger
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(uc *transactions.LedgerUseCase, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{uc: uc, log: log}
}

func ledgerQuery(c *fiber.Ctx) dto.LedgerListRequest {
	return dto.LedgerListRequest{
		ProductID: c.Query("product_id"),
		Kind:      c.Query("kind"),
		From:      c.Query("from"),
		To:        c.Query("to"),
		PageRequest: dto.PageRequest{
			Limit:  c.QueryInt("limit", dto.DefaultLimit),
			Offset: c.QueryInt("offset", 0),
		},
	}
}

// List godoc
// @Summary      Listar movimientos del ledger (más recientes primero)
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "ID interno o item_id"
// @Param        kind        query  string  false  "procure | distribute | adjustment"
// @Param        from        query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        to          query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        limit       query  int     false  "Límite (máx 200)"
// @Param        offset      query  int     false  "Offset"
// @Success      200  {object}  dto.LedgerListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), ledgerQuery(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de un movimiento
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la entrada"
// @Success      200  {object}  dto.LedgerEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Invoice godoc
// @Summary      Factura adjunta a un movimiento
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la entrada"
// @Success      200  {object}  dto.InvoiceDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/invoice [get]
func (h *TransactionHandler) Invoice(c *fiber.Ctx) error {
	out, err := h.uc.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Audit godoc
// @Summary      Reconstruir el stock de un producto desde el ledger
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID interno o item_id"
// @Success      200  {object}  dto.LedgerAuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/audit/{productId} [get]
func (h *TransactionHandler) Audit(c *fiber.Ctx) error {
	out, err := h.uc.Replay(c.UserContext(), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ExportPDF godoc
// @Summary      Reporte PDF de movimientos
// @Tags         transactions
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id  query  string  false  "ID interno o item_id"
// @Param        kind        query  string  false  "procure | distribute | adjustment"
// @Param        from        query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        to          query  string  false  "YYYY-MM-DD o RFC3339"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions/pdf [get]
func (h *TransactionHandler) ExportPDF(c *fiber.Ctx) error {
	doc, err := h.uc.ExportPDF(c.UserContext(), ledgerQuery(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="ledger-%s.pdf"`, time.Now().UTC().Format("20060102-150405")))
	return c.Send(doc)
}
