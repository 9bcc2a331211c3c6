package http

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/export"
	"github.com/jhoicas/stock-ledger-api/internal/application/training"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// TrainingHandler CRUD de capacitaciones y su exportación a Excel.
type TrainingHandler struct {
	uc       *training.TrainingUseCase
	exporter *export.TrainingExportUseCase
	log      *logger.Logger
}

// NewTrainingHandler construye el handler.
func NewTrainingHandler(uc *training.TrainingUseCase, exporter *export.TrainingExportUseCase, log *logger.Logger) *TrainingHandler {
	return &TrainingHandler{uc: uc, exporter: exporter, log: log}
}

// Create godoc
// @Summary      Crear capacitación (dueño = usuario autenticado)
// @Tags         trainings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TrainingRequest  true  "training_code, training_effectiveness_percent (0..100)"
// @Success      201   {object}  dto.TrainingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/trainings [post]
func (h *TrainingHandler) Create(c *fiber.Ctx) error {
	var in dto.TrainingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), CallerFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Mine godoc
// @Summary      Mis capacitaciones
// @Tags         trainings
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.TrainingResponse
// @Router       /api/trainings/mine [get]
func (h *TrainingHandler) Mine(c *fiber.Ctx) error {
	out, err := h.uc.Mine(c.UserContext(), CallerFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Todas las capacitaciones (admin)
// @Tags         trainings
// @Security     Bearer
// @Produce      json
// @Param        ownerId  query  string  false  "Filtrar por dueño"
// @Success      200  {array}  dto.TrainingResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/trainings [get]
func (h *TrainingHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListAll(c.UserContext(), CallerFrom(c), c.Query("ownerId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de una capacitación (dueño o admin)
// @Tags         trainings
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.TrainingResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/trainings/{id} [get]
func (h *TrainingHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), CallerFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar capacitación; guarda una versión del estado anterior
// @Tags         trainings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID"
// @Param        body  body  dto.TrainingRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.TrainingResponse
// @Router       /api/trainings/{id} [put]
func (h *TrainingHandler) Update(c *fiber.Ctx) error {
	var in dto.TrainingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), CallerFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar capacitación
// @Tags         trainings
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Router       /api/trainings/{id} [delete]
func (h *TrainingHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), CallerFrom(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportMine godoc
// @Summary      Excel con mis capacitaciones
// @Tags         report-excel
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/report-excel/mine [get]
func (h *TrainingHandler) ExportMine(c *fiber.Ctx) error {
	var buf bytes.Buffer
	name, err := h.exporter.ExportMine(c.UserContext(), CallerFrom(c), &buf)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return sendSpreadsheet(c, name, &buf)
}

// ExportAll godoc
// @Summary      Excel con todas las capacitaciones (admin)
// @Tags         report-excel
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        ownerId  query  string  false  "Filtrar por dueño"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/report-excel [get]
func (h *TrainingHandler) ExportAll(c *fiber.Ctx) error {
	var buf bytes.Buffer
	name, err := h.exporter.ExportAll(c.UserContext(), CallerFrom(c), c.Query("ownerId"), &buf)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return sendSpreadsheet(c, name, &buf)
}

func sendSpreadsheet(c *fiber.Ctx, name string, buf *bytes.Buffer) error {
	c.Set(fiber.HeaderContentType, export.ContentTypeXLSX)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
