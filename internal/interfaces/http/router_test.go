package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appanalytics "github.com/jhoicas/stock-ledger-api/internal/application/analytics"
	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/catalog"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/export"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/training"
	"github.com/jhoicas/stock-ledger-api/internal/application/transactions"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
)

type testServer struct {
	app    *fiber.App
	authUC *auth.AuthUseCase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	}).WithBcryptCost(bcrypt.MinCost)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   catalog.NewProductUseCase(store.Products(), store.Counters(), store.TxRunner(), nil),
		MutationUC:  inventory.NewMutationUseCase(store.TxRunner(), nil, nil, 2),
		LedgerUC:    transactions.NewLedgerUseCase(store.Ledger(), store.Products(), pdf.NewMarotoPDFGenerator(time.UTC)),
		DashboardUC: appanalytics.NewDashboardUseCase(store.Reports(), nil, 0, nil),
		TrainingUC:  training.NewTrainingUseCase(store.Trainings()),
		ExportUC:    export.NewTrainingExportUseCase(store.Trainings(), xlsx.NewTrainingSheetWriter()),
		JWTSecret:   testJWTSecret,
	})
	return &testServer{app: app, authUC: authUC}
}

// userToken crea el usuario directamente en el caso de uso y obtiene su token por /api/auth/login.
func (s *testServer) userToken(t *testing.T, email, role string) string {
	t.Helper()
	_, err := s.authUC.RegisterUser(context.Background(), &entity.Caller{ID: "bootstrap", Role: entity.RoleAdmin}, dto.RegisterRequest{
		Email:    email,
		Password: "password-seguro",
		Name:     "Usuario " + role,
		Role:     role,
	})
	require.NoError(t, err)

	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "password-seguro"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *testServer) createProduct(t *testing.T, token string, initial int64) dto.ProductResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/products", token, dto.CreateProductRequest{
		Name:         "Guantes de nitrilo",
		Category:     "epp",
		ReorderLevel: 5,
		InitialStock: initial,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp)
}

func TestAuth_RegistroPublicoYLogin(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email:    "Ana@Example.com",
		Password: "password-seguro",
		Name:     "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decode[dto.UserResponse](t, resp)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, entity.RoleUser, user.Role)

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "password-seguro"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)

	resp = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[dto.UserResponse](t, resp)
	assert.Equal(t, user.ID, me.ID)
}

func TestAuth_RegistroPublicoNoPuedeCrearAdmin(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email:    "root@example.com",
		Password: "password-seguro",
		Role:     entity.RoleAdmin,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuth_EmailDuplicado_Retorna409(t *testing.T) {
	s := newTestServer(t)
	req := dto.RegisterRequest{Email: "dup@example.com", Password: "password-seguro"}

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", req)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/register", "", req)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", body.Code)
}

func TestAuth_PasswordIncorrecto_Retorna401(t *testing.T) {
	s := newTestServer(t)
	s.userToken(t, "bob@example.com", entity.RoleUser)

	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "bob@example.com", Password: "otra-clave"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInventario_ProcureYDistribute(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "op@example.com", entity.RoleUser)
	product := s.createProduct(t, token, 0)
	assert.NotEmpty(t, product.ItemID)

	resp := s.do(t, http.MethodPost, "/api/inventory/procure", token, dto.ProcureRequest{ProductID: product.ID, Quantity: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	procured := decode[dto.MutationResponse](t, resp)
	assert.Equal(t, int64(10), procured.Product.CurrentStock)
	assert.Equal(t, "procure", procured.LedgerEntry.Kind)
	assert.Equal(t, int64(10), procured.LedgerEntry.BalanceAfter)

	resp = s.do(t, http.MethodPost, "/api/inventory/distribute", token, dto.DistributeRequest{ProductID: product.ItemID, Quantity: 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	distributed := decode[dto.MutationResponse](t, resp)
	assert.Equal(t, int64(6), distributed.Product.CurrentStock)
	assert.Equal(t, "distribute", distributed.LedgerEntry.Kind)

	resp = s.do(t, http.MethodGet, "/api/transactions?product_id="+product.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.LedgerListResponse](t, resp)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "distribute", list.Items[0].Kind, "más reciente primero")
}

func TestInventario_DistributeSinStock_Retorna409(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "op@example.com", entity.RoleUser)
	product := s.createProduct(t, token, 3)

	resp := s.do(t, http.MethodPost, "/api/inventory/distribute", token, dto.DistributeRequest{ProductID: product.ID, Quantity: 4})
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)

	resp = s.do(t, http.MethodGet, "/api/products/"+product.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), decode[dto.ProductResponse](t, resp).CurrentStock, "el stock no cambia")
}

func TestInventario_CantidadInvalida_Retorna400(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "op@example.com", entity.RoleUser)
	product := s.createProduct(t, token, 0)

	resp := s.do(t, http.MethodPost, "/api/inventory/procure", token, dto.ProcureRequest{ProductID: product.ID, Quantity: 0})
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.Code)
}

func TestInventario_ProductoInexistente_Retorna404(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "op@example.com", entity.RoleUser)

	resp := s.do(t, http.MethodPost, "/api/inventory/procure", token, dto.ProcureRequest{ProductID: "NO-EXISTE", Quantity: 1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductos_BorrarSoloAdmin(t *testing.T) {
	s := newTestServer(t)
	userTok := s.userToken(t, "op@example.com", entity.RoleUser)
	adminTok := s.userToken(t, "admin@example.com", entity.RoleAdmin)
	product := s.createProduct(t, userTok, 0)

	resp := s.do(t, http.MethodDelete, "/api/products/"+product.ID, userTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/products/"+product.ID, adminTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDashboard_SoloAdmin(t *testing.T) {
	s := newTestServer(t)
	userTok := s.userToken(t, "op@example.com", entity.RoleUser)
	adminTok := s.userToken(t, "admin@example.com", entity.RoleAdmin)
	product := s.createProduct(t, userTok, 0)

	resp := s.do(t, http.MethodPost, "/api/inventory/procure", userTok, dto.ProcureRequest{ProductID: product.ID, Quantity: 8})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/dashboard", userTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/dashboard", adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[dto.DashboardDTO](t, resp)
	assert.Equal(t, int64(8), dash.TotalProcured)
	assert.Len(t, dash.RecentTx, 1)
}

func TestRutasProtegidas_SinToken_Retorna401(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/products", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTrainings_CrearYExportarMios(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "op@example.com", entity.RoleUser)
	code := "SEG-01"
	pct := 85.5

	resp := s.do(t, http.MethodPost, "/api/trainings", token, dto.TrainingRequest{
		TrainingCode:                 &code,
		TrainingEffectivenessPercent: &pct,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.TrainingResponse](t, resp)
	assert.Equal(t, "SEG-01", created.TrainingCode)

	resp = s.do(t, http.MethodGet, "/api/trainings/mine", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.TrainingResponse](t, resp), 1)

	resp = s.do(t, http.MethodGet, "/api/report-excel/mine", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentTypeXLSX, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")), "un xlsx es un zip")
}

func TestTrainings_ListadoGlobalSoloAdmin(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken(t, "op@example.com", entity.RoleUser)

	resp := s.do(t, http.MethodGet, "/api/trainings", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
