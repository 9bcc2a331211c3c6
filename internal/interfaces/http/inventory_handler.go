package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// InventoryHandler maneja las mutaciones de stock (protegido).
type InventoryHandler struct {
	uc  *inventory.MutationUseCase
	log *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.MutationUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log}
}

// Procure godoc
// @Summary      Registrar entrada de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProcureRequest  true  "product_id, quantity > 0, unit_price opcional"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/procure [post]
func (h *InventoryHandler) Procure(c *fiber.Ctx) error {
	var in dto.ProcureRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Procure(c.UserContext(), CallerFrom(c), inventory.ProcureInput{
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		WarehouseCode: in.WarehouseCode,
		Notes:         in.Notes,
		Invoice:       dto.InvoiceFromDTO(in.Invoice),
	})
	return h.respond(c, res, err)
}

// Distribute godoc
// @Summary      Registrar salida de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DistributeRequest  true  "product_id, quantity > 0"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK"
// @Router       /api/inventory/distribute [post]
func (h *InventoryHandler) Distribute(c *fiber.Ctx) error {
	var in dto.DistributeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Distribute(c.UserContext(), CallerFrom(c), inventory.DistributeInput{
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		WarehouseCode: in.WarehouseCode,
		Notes:         in.Notes,
		Invoice:       dto.InvoiceFromDTO(in.Invoice),
	})
	return h.respond(c, res, err)
}

// Adjust godoc
// @Summary      Ajustar stock a un valor absoluto
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "product_id, new_stock >= 0"
// @Success      201   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Adjust(c.UserContext(), CallerFrom(c), inventory.AdjustInput{
		ProductID:     in.ProductID,
		NewStock:      in.NewStock,
		WarehouseCode: in.WarehouseCode,
		Notes:         in.Notes,
	})
	return h.respond(c, res, err)
}

// SetWarehouses godoc
// @Summary      Reemplazar el desglose por bodega
// @Description  El stock total pasa a ser la suma del desglose; se registra un ajuste.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID interno o item_id"
// @Param        body  body  dto.WarehouseBreakdownRequest  true  "Subtotales por bodega"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/warehouses [put]
func (h *InventoryHandler) SetWarehouses(c *fiber.Ctx) error {
	var in dto.WarehouseBreakdownRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	entries := make([]entity.WarehouseStock, 0, len(in.Warehouses))
	for _, w := range in.Warehouses {
		entries = append(entries, entity.WarehouseStock{WarehouseCode: w.WarehouseCode, Quantity: w.Quantity})
	}
	res, err := h.uc.SetWarehouseBreakdown(c.UserContext(), CallerFrom(c), inventory.WarehouseBreakdownInput{
		ProductID: c.Params("id"),
		Entries:   entries,
		Notes:     in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(mutationResponse(res))
}

func (h *InventoryHandler) respond(c *fiber.Ctx, res *inventory.Result, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mutationResponse(res))
}

func mutationResponse(res *inventory.Result) dto.MutationResponse {
	return dto.MutationResponse{
		Product:     dto.NewProductResponse(res.Product),
		LedgerEntry: dto.NewLedgerEntryResponse(res.Entry),
	}
}
