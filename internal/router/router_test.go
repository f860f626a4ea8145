// internal/router/router_test.go
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/apiclient"
	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/counting"
	"github.com/javajoker/stockcount/internal/database"
	"github.com/javajoker/stockcount/internal/models"
)

const (
	adminEmail    = "admin@router.test"
	adminPassword = "admin-password"
)

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	server *httptest.Server
	client *apiclient.Client
	admin  apiclient.Credentials
}

func (s *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.ErrorLevel)

	db, err := database.OpenInMemory("router_suite")
	s.Require().NoError(err)
	s.db = db

	s.cfg = &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "router-test", AccessTokenTTL: 1},
		Storage:     config.StorageConfig{LocalPath: s.T().TempDir(), ReportsPrefix: "reports"},
		Inventory:   config.InventoryConfig{AllowedCreationDays: 3, MaxSessionsPerMonth: 3},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		RateLimit:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, LoginPerMinute: 1000},
	}

	s.Require().NoError(database.SeedInitialData(db, config.SeedConfig{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		AdminName:     "Router Admin",
	}))
	s.Require().NoError(database.SeedDemoCatalog(db))
	// sessions are created on arbitrary days of the month here
	s.Require().NoError(db.Model(&models.FeatureFlag{}).
		Where("key = ?", models.FlagInventoryDateRestriction).
		Update("enabled", false).Error)

	r, err := Initialize(db, s.cfg)
	s.Require().NoError(err)
	s.server = httptest.NewServer(r)

	logger, _ := test.NewNullLogger()
	s.client = apiclient.New(s.server.URL, apiclient.WithLogger(logger))

	s.admin, err = s.client.Authenticate(context.Background(), adminEmail, adminPassword)
	s.Require().NoError(err)
}

func (s *RouterTestSuite) TearDownSuite() {
	s.server.Close()
	database.Close(s.db)
}

func (s *RouterTestSuite) do(method, path, token string, body interface{}) (int, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, data
}

func (s *RouterTestSuite) catalog() ([]apiclient.Product, map[string]apiclient.MeasureUnit) {
	ctx := context.Background()
	products, err := s.client.ListProducts(ctx, s.admin)
	s.Require().NoError(err)
	units, err := s.client.ListMeasureUnits(ctx, s.admin, true)
	s.Require().NoError(err)

	byAbbreviation := make(map[string]apiclient.MeasureUnit, len(units))
	for _, u := range units {
		byAbbreviation[u.Abbreviation] = u
	}
	return products, byAbbreviation
}

func (s *RouterTestSuite) product(code string) apiclient.Product {
	products, _ := s.catalog()
	for _, p := range products {
		if p.Code == code {
			return p
		}
	}
	s.FailNow("product not found", code)
	return apiclient.Product{}
}

func (s *RouterTestSuite) warehouseID() string {
	warehouses, err := s.client.ListWarehouses(context.Background(), s.admin)
	s.Require().NoError(err)
	s.Require().NotEmpty(warehouses)
	return warehouses[0].ID
}

func (s *RouterTestSuite) ensureSixPack() apiclient.Product {
	products, units := s.catalog()
	for _, p := range products {
		if p.Code == "SKU-006" {
			return p
		}
	}
	status, body := s.do(http.MethodPost, "/products/", s.admin.Token, map[string]interface{}{
		"code":              "SKU-006",
		"description":       "Six pack",
		"conversion_factor": 6,
		"inventory_unit_id": units["UND"].ID,
		"packaging_unit_id": units["BOX"].ID,
	})
	s.Require().Equal(http.StatusCreated, status, string(body))
	return s.product("SKU-006")
}

func addRow(rows *counting.RowSet, p apiclient.Product, unitID string, qty float64) {
	id := rows.AddRow()
	rows.UpdateRow(id, counting.RowPatch{
		ProductID:     &p.ID,
		MeasureUnitID: &unitID,
		Quantity:      &qty,
		Product:       counting.SnapshotOf(p),
	})
}

func (s *RouterTestSuite) TestHealth() {
	status, body := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"status":"healthy","version":"1.0.0"}`, string(body))
}

func (s *RouterTestSuite) TestLoginErrors() {
	_, err := s.client.Login(context.Background(), apiclient.LoginRequest{Email: adminEmail, Password: "nope"})
	s.Require().Error(err)
	s.True(apiclient.IsStatus(err, http.StatusUnauthorized))
	s.Equal("Incorrect email or password", err.Error())

	_, err = s.client.Login(context.Background(), apiclient.LoginRequest{Email: "not-an-email"})
	s.Require().Error(err)
	s.True(apiclient.IsStatus(err, http.StatusUnprocessableEntity))
	s.Equal("Invalid email format, password is required", err.Error())
}

func (s *RouterTestSuite) TestAuthRequired() {
	status, body := s.do(http.MethodGet, "/inventory-sessions/", "", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("Not authenticated", apiclient.ExtractDetail(body))

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/auth/me", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer nope")
	req.Header.Set("Accept-Language", "es")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Token inválido o expirado", apiclient.ExtractDetail(data))
}

func (s *RouterTestSuite) TestRolesAndWarehouseScoping() {
	ctx := context.Background()
	warehouseID := s.warehouseID()

	status, body := s.do(http.MethodPost, "/users/", s.admin.Token, map[string]interface{}{
		"identification": "900100200",
		"name":           "Line Leader",
		"email":          "leader@router.test",
		"role":           "PROCESS_LEADER",
		"password":       "leader-password",
		"warehouses":     []string{warehouseID},
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	leader, err := s.client.Authenticate(ctx, "leader@router.test", "leader-password")
	s.Require().NoError(err)

	me, err := s.client.Me(ctx, leader)
	s.Require().NoError(err)
	s.Equal("PROCESS_LEADER", me.Role)
	s.Require().Len(me.Warehouses, 1)

	_, err = s.client.CreateSession(ctx, leader, apiclient.CreateSessionRequest{
		WarehouseID: warehouseID,
		Month:       counting.MonthParam(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)),
		CreatedBy:   leader.UserID,
	})
	s.Require().Error(err)
	s.True(apiclient.IsStatus(err, http.StatusForbidden))

	products, err := s.client.ListProducts(ctx, leader)
	s.Require().NoError(err)
	s.NotEmpty(products)

	status, _ = s.do(http.MethodGet, "/users/", leader.Token, nil)
	s.Equal(http.StatusForbidden, status)
}

func (s *RouterTestSuite) TestFeatureFlagToggle() {
	status, body := s.do(http.MethodGet, "/feature-flags/", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, status)

	var flags []models.FeatureFlag
	s.Require().NoError(json.Unmarshal(body, &flags))
	s.Require().NotEmpty(flags)
	flag := flags[0]

	status, body = s.do(http.MethodPatch, "/feature-flags/"+flag.ID.String()+"/toggle", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, status)
	var toggled models.FeatureFlag
	s.Require().NoError(json.Unmarshal(body, &toggled))
	s.Equal(!flag.Enabled, toggled.Enabled)

	status, _ = s.do(http.MethodPatch, "/feature-flags/"+flag.ID.String()+"/toggle", s.admin.Token, nil)
	s.Equal(http.StatusOK, status)

	status, body = s.do(http.MethodPatch, "/feature-flags/not-a-uuid/toggle", s.admin.Token, nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("Feature flag not found", apiclient.ExtractDetail(body))
}

func (s *RouterTestSuite) TestCountingWorkflowEndToEnd() {
	ctx := context.Background()
	box12 := s.product("SKU-001")
	sixPack := s.ensureSixPack()
	_, units := s.catalog()

	rows := counting.NewRowSet()
	addRow(rows, box12, units["BOX"].ID, 2)
	addRow(rows, sixPack, units["UND"].ID, 30)

	var phases []counting.Phase
	submitter := counting.NewSubmitter(s.client, counting.WithObserver(func(st counting.State) {
		phases = append(phases, st.Phase)
	}))

	result, err := submitter.Submit(ctx, s.admin, counting.SessionRequest{
		WarehouseID: s.warehouseID(),
		Month:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, rows)
	s.Require().NoError(err)
	s.Equal(counting.PhaseDone, submitter.State().Phase)
	s.Equal(counting.PhaseDone, phases[len(phases)-1])
	s.Require().Len(result.Counts, 2)
	s.Equal(int64(24), result.Counts[0].TotalUnits)
	s.Equal(int64(5), result.Counts[1].PackagingQuantity)
	s.Equal(int64(30), result.Counts[1].TotalUnits)
	s.True(decimal.NewFromInt(6).Equal(result.Counts[1].Product.ConversionFactor))

	view, err := counting.NewViewer(s.client).Load(ctx, s.admin, result.Session.ID)
	s.Require().NoError(err)
	s.False(view.Empty())
	s.Equal(int64(54), view.Summary.TotalUnits)
	s.Len(view.Summary.Products, 2)

	session, err := s.client.GetSession(ctx, s.admin, result.Session.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), session.ProductsCount)
	s.Equal("OPEN", session.Status)
	s.Equal("Router Admin", session.CreatedByName)

	closed, err := s.client.CloseSession(ctx, s.admin, result.Session.ID)
	s.Require().NoError(err)
	s.Equal("CLOSED", closed.Status)

	status, body := s.do(http.MethodGet, "/inventory-sessions/"+result.Session.ID+"/report", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(body), "SKU-001")
	s.Contains(string(body), "SKU-006")

	_, err = s.client.RegisterCount(ctx, s.admin, result.Session.ID, apiclient.RegisterCountRequest{
		ProductID:         box12.ID,
		PackagingQuantity: 1,
	})
	s.Require().Error(err)
	s.Equal("Inventory session is closed. No more counts can be registered.", err.Error())
}

// A registration failing mid-run leaves the session and earlier counts in place.
func (s *RouterTestSuite) TestPartialSubmission() {
	ctx := context.Background()
	box12 := s.product("SKU-001")
	sixPack := s.ensureSixPack()
	_, units := s.catalog()

	ghost := box12
	ghost.ID = uuid.NewString()
	ghost.Code = "SKU-GONE"

	rows := counting.NewRowSet()
	addRow(rows, box12, units["BOX"].ID, 1)
	addRow(rows, ghost, units["BOX"].ID, 1)
	addRow(rows, sixPack, units["BOX"].ID, 1)

	submitter := counting.NewSubmitter(s.client)
	_, err := submitter.Submit(ctx, s.admin, counting.SessionRequest{
		WarehouseID: s.warehouseID(),
		Month:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}, rows)

	var submissionErr *counting.SubmissionError
	s.Require().ErrorAs(err, &submissionErr)
	s.True(submissionErr.Partial())
	s.Equal(1, submissionErr.Registered)
	s.Equal(3, submissionErr.Total)
	s.True(apiclient.IsStatus(err, http.StatusNotFound))
	s.Contains(err.Error(), "Product not found")
	s.Equal(counting.PhaseFailed, submitter.State().Phase)

	counts, err := s.client.ListCounts(ctx, s.admin, submissionErr.SessionID)
	s.Require().NoError(err)
	s.Require().Len(counts, 1)
	s.Equal(box12.ID, counts[0].Product.ID)
}

func (s *RouterTestSuite) TestSessionLimitPerMonth() {
	ctx := context.Background()
	req := apiclient.CreateSessionRequest{
		WarehouseID: s.warehouseID(),
		Month:       counting.MonthParam(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		CreatedBy:   s.admin.UserID,
	}

	for want := 1; want <= 3; want++ {
		session, err := s.client.CreateSession(ctx, s.admin, req)
		s.Require().NoError(err)
		s.Equal(want, session.CountNumber)
	}

	_, err := s.client.CreateSession(ctx, s.admin, req)
	s.Require().Error(err)
	s.True(apiclient.IsStatus(err, http.StatusBadRequest))
	s.Equal("Maximum 3 sessions per month per warehouse. No more counts can be created for this month.", err.Error())

	status, body := s.do(http.MethodGet, "/inventory-sessions/?month=2025-03&page=1&limit=2", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, status)
	var sessions []apiclient.Session
	s.Require().NoError(json.Unmarshal(body, &sessions))
	s.Len(sessions, 2)
	s.Equal(3, sessions[0].CountNumber)
}

func (s *RouterTestSuite) TestEmptySessionViewIsNotAnError() {
	ctx := context.Background()
	session, err := s.client.CreateSession(ctx, s.admin, apiclient.CreateSessionRequest{
		WarehouseID: s.warehouseID(),
		Month:       counting.MonthParam(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
		CreatedBy:   s.admin.UserID,
	})
	s.Require().NoError(err)

	view, err := counting.NewViewer(s.client).Load(ctx, s.admin, session.ID)
	s.Require().NoError(err)
	s.True(view.Empty())

	_, err = counting.NewViewer(s.client).Load(ctx, s.admin, uuid.NewString())
	s.Require().Error(err)
	s.True(apiclient.IsStatus(err, http.StatusNotFound))
}

func (s *RouterTestSuite) TestSessionProducts() {
	ctx := context.Background()
	box12 := s.product("SKU-001")
	sixPack := s.ensureSixPack()

	session, err := s.client.CreateSession(ctx, s.admin, apiclient.CreateSessionRequest{
		WarehouseID: s.warehouseID(),
		Month:       counting.MonthParam(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		CreatedBy:   s.admin.UserID,
	})
	s.Require().NoError(err)

	added, err := s.client.AddSessionProducts(ctx, s.admin, session.ID, []string{sixPack.ID, box12.ID, sixPack.ID})
	s.Require().NoError(err)
	s.Equal(2, added)

	products, err := s.client.ListSessionProducts(ctx, s.admin, session.ID)
	s.Require().NoError(err)
	s.Require().Len(products, 2)
	s.Equal(sixPack.ID, products[0].ProductID)
	s.Equal("SKU-001", products[1].Code)

	status, body := s.do(http.MethodPost, "/inventory-sessions/"+session.ID+"/products", s.admin.Token, map[string]interface{}{
		"product_ids": []string{uuid.NewString()},
	})
	s.Equal(http.StatusNotFound, status)
	s.Equal("Product not found", apiclient.ExtractDetail(body))

	_, err = s.client.CloseSession(ctx, s.admin, session.ID)
	s.Require().NoError(err)
	_, err = s.client.AddSessionProducts(ctx, s.admin, session.ID, []string{box12.ID})
	s.Require().Error(err)
	s.True(apiclient.IsStatus(err, http.StatusBadRequest))
	s.Equal("Cannot add products to a closed inventory session.", err.Error())
}

func (s *RouterTestSuite) TestUserSyncIsAdminOnly() {
	status, body := s.do(http.MethodPost, "/users/", s.admin.Token, map[string]interface{}{
		"identification": "900100300",
		"name":           "Sync Manager",
		"email":          "sync.manager@router.test",
		"role":           "WAREHOUSE_MANAGER",
		"password":       "manager-password",
		"warehouses":     []string{s.warehouseID()},
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	manager, err := s.client.Authenticate(context.Background(), "sync.manager@router.test", "manager-password")
	s.Require().NoError(err)

	status, _ = s.do(http.MethodPost, "/users/sync", manager.Token, nil)
	s.Equal(http.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, "/users/sync", "", nil)
	s.Equal(http.StatusUnauthorized, status)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
