package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billingreportdomain "github.com/smallbiznis/orderbill/internal/billingreport/domain"
	customerdomain "github.com/smallbiznis/orderbill/internal/customer/domain"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCustomerService struct {
	customers map[string]customerdomain.Customer
}

func (f *fakeCustomerService) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	if req.Name == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidName
	}
	return customerdomain.Customer{ID: snowflake.ID(1), Name: req.Name, Email: req.Email}, nil
}

func (f *fakeCustomerService) List(ctx context.Context, filter customerdomain.ListCustomerFilter) ([]customerdomain.Customer, error) {
	out := make([]customerdomain.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCustomerService) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return c, nil
}

type fakeProductService struct{}

func (fakeProductService) FindBySKUs(ctx context.Context, customerID snowflake.ID, skus []string) (map[string]productdomain.Product, error) {
	return map[string]productdomain.Product{}, nil
}

func (fakeProductService) Create(ctx context.Context, req productdomain.CreateProductRequest) (productdomain.Product, error) {
	if req.SKU == "DUP" {
		return productdomain.Product{}, productdomain.ErrDuplicateSKU
	}
	return productdomain.Product{ID: snowflake.ID(5), SKU: req.SKU, CaseSize: req.CaseSize}, nil
}

type fakeCustomerServiceManager struct {
	duplicate bool
}

func (f *fakeCustomerServiceManager) CreateService(ctx context.Context, req csdomain.CreateServiceRequest) (csdomain.Service, error) {
	ct, ok := csdomain.ParseChargeType(req.ChargeType)
	if !ok {
		return csdomain.Service{}, csdomain.ErrInvalidChargeType
	}
	return csdomain.Service{ID: snowflake.ID(10), Name: req.Name, ChargeType: ct}, nil
}

func (f *fakeCustomerServiceManager) CreateCustomerService(ctx context.Context, req csdomain.CreateCustomerServiceRequest) (csdomain.CustomerService, error) {
	if f.duplicate {
		return csdomain.CustomerService{}, csdomain.ErrDuplicateAssignment
	}
	return csdomain.CustomerService{ID: snowflake.ID(20), UnitPrice: req.UnitPrice}, nil
}

func (f *fakeCustomerServiceManager) GetCustomerService(ctx context.Context, id string) (csdomain.CustomerService, error) {
	return csdomain.CustomerService{}, csdomain.ErrNotFound
}

func (f *fakeCustomerServiceManager) ListByCustomer(ctx context.Context, customerID string) ([]csdomain.CustomerService, error) {
	return []csdomain.CustomerService{}, nil
}

type fakeRuleService struct {
	lastGroup ruledomain.CreateRuleGroupRequest
}

func (f *fakeRuleService) CreateRuleGroup(ctx context.Context, req ruledomain.CreateRuleGroupRequest) (ruledomain.RuleGroup, error) {
	f.lastGroup = req
	if len(req.Rules) == 0 {
		return ruledomain.RuleGroup{}, ruledomain.ErrEmptyRuleGroup
	}
	return ruledomain.RuleGroup{ID: snowflake.ID(30), Name: req.Name}, nil
}

func (f *fakeRuleService) ListRuleGroups(ctx context.Context, customerServiceID string) ([]ruledomain.RuleGroup, error) {
	return []ruledomain.RuleGroup{}, nil
}

func (f *fakeRuleService) SetTierConfig(ctx context.Context, ruleID string, raw json.RawMessage) (ruledomain.Rule, error) {
	return ruledomain.Rule{}, ruledomain.ErrInvalidTierConfig
}

type fakeReportService struct {
	report  *billingreportdomain.BillingReport
	lastReq billingreportdomain.GenerateRequest
	err     error
	deleted string
}

func (f *fakeReportService) Generate(ctx context.Context, req billingreportdomain.GenerateRequest) (*billingreportdomain.BillingReport, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeReportService) Get(ctx context.Context, id string) (*billingreportdomain.BillingReport, error) {
	if f.report == nil || f.report.ID.String() != id {
		return nil, billingreportdomain.ErrNotFound
	}
	return f.report, nil
}

func (f *fakeReportService) ListByCustomer(ctx context.Context, customerID string, limit int) ([]billingreportdomain.BillingReport, error) {
	if f.report == nil {
		return nil, nil
	}
	return []billingreportdomain.BillingReport{*f.report}, nil
}

func (f *fakeReportService) Delete(ctx context.Context, id string) error {
	if f.report == nil || f.report.ID.String() != id {
		return billingreportdomain.ErrNotFound
	}
	f.deleted = id
	return nil
}

func sampleReport() *billingreportdomain.BillingReport {
	report := &billingreportdomain.BillingReport{
		ID:           snowflake.ID(900),
		CustomerID:   snowflake.ID(1),
		CustomerName: "Acme",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	oc := billingreportdomain.OrderCost{
		ID:            snowflake.ID(901),
		OrderID:       snowflake.ID(100),
		TransactionID: "T-1",
		OrderDate:     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		TotalAmount:   decimal.Zero,
	}
	oc.AddServiceCost(billingreportdomain.ServiceCost{
		ID:          snowflake.ID(902),
		ServiceID:   snowflake.ID(10),
		ServiceName: "Handling",
		Amount:      decimal.NewFromInt(15),
	})
	report.AddOrderCost(oc)
	report.RecalculateTotal()
	return report
}

type testServer struct {
	engine  *gin.Engine
	reports *fakeReportService
	rules   *fakeRuleService
	cs      *fakeCustomerServiceManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		reports: &fakeReportService{report: sampleReport()},
		rules:   &fakeRuleService{},
		cs:      &fakeCustomerServiceManager{},
	}
	srv := NewServer(ServerParams{
		Gin: NewEngine(zap.NewNop()),
		CustomerSvc: &fakeCustomerService{customers: map[string]customerdomain.Customer{
			"1": {ID: snowflake.ID(1), Name: "Acme", Email: "ops@acme.test"},
		}},
		ProductSvc:         fakeProductService{},
		CustomerServiceSvc: ts.cs,
		RuleSvc:            ts.rules,
		ReportSvc:          ts.reports,
	})
	ts.engine = srv.Engine()
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerateReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/reports", `{"customer_id":"1","start_date":"2024-01-01","end_date":"2024-01-31"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, ts.reports.lastReq.CustomerServiceIDs)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), ts.reports.lastReq.EndDate)

	var resp struct {
		Data struct {
			ReportID    string          `json:"report_id"`
			TotalAmount json.RawMessage `json:"total_amount"`
			OrderCosts  []struct {
				OrderID string `json:"order_id"`
			} `json:"order_costs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "900", resp.Data.ReportID)
	assert.Equal(t, "15.00", string(resp.Data.TotalAmount))
	require.Len(t, resp.Data.OrderCosts, 1)
	assert.Equal(t, "T-1", resp.Data.OrderCosts[0].OrderID)
}

func TestGenerateReportKeepsEmptyServiceFilter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/reports", `{"customer_id":"1","start_date":"2024-01-01","end_date":"2024-01-31","customer_service_ids":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.reports.lastReq.CustomerServiceIDs)
	assert.Empty(t, ts.reports.lastReq.CustomerServiceIDs)
}

func TestGenerateReportRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/reports", `{"customer_id":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Type)

	rec = ts.do(http.MethodPost, "/api/reports", `{"customer_id":"1","start_date":"01/01/2024","end_date":"2024-01-31"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date_range", decodeError(t, rec).Errors[0].Code)
}

func TestGenerateReportMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    billingreportdomain.NewValidationError(billingreportdomain.ErrInvalidDateRange, "start after end"),
			status: http.StatusBadRequest,
			code:   "invalid_date_range",
		},
		{
			name:   "customer not found",
			err:    billingreportdomain.NewValidationError(billingreportdomain.ErrCustomerNotFound, "customer 7 not found"),
			status: http.StatusBadRequest,
			code:   "customer_not_found",
		},
		{
			name:   "generation",
			err:    &billingreportdomain.GenerationError{Err: errors.New("db down")},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.reports.err = tc.err

			rec := ts.do(http.MethodPost, "/api/reports", `{"customer_id":"1","start_date":"2024-01-01","end_date":"2024-01-31"}`)

			assert.Equal(t, tc.status, rec.Code)
			payload := decodeError(t, rec)
			if tc.code != "" {
				require.NotEmpty(t, payload.Errors)
				assert.Equal(t, tc.code, payload.Errors[0].Code)
			} else {
				assert.Equal(t, "internal_error", payload.Type)
			}
		})
	}
}

func TestGetReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/reports/900", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/reports/901", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestExportReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/reports/900/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "billing-report-900.csv")
	assert.Contains(t, rec.Body.String(), "TOTAL,,15.00")

	rec = ts.do(http.MethodGet, "/api/reports/900/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	rec = ts.do(http.MethodGet, "/api/reports/900/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_format", decodeError(t, rec).Errors[0].Code)
}

func TestListCustomerReports(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/customers/1/reports?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_amount":15.00`)

	rec = ts.do(http.MethodGet, "/api/customers/1/reports?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodDelete, "/api/reports/900", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "900", ts.reports.deleted)

	rec = ts.do(http.MethodDelete, "/api/reports/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomerEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/customers", `{"name":"  Acme ","email":"ops@acme.test"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Acme"`)

	rec = ts.do(http.MethodPost, "/api/customers", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_name", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(http.MethodGet, "/api/customers/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProductDuplicate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/products", `{"customer_id":"1","sku":"DUP","case_size":12}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec).Type)
}

func TestCustomerServiceEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/services", `{"name":"Handling","charge_type":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_charge_type", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(http.MethodPost, "/api/services", `{"name":"Handling","charge_type":"single"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/customer-services", `{"customer_id":"1","service_id":"10","unit_price":"2.50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unit_price":"2.5"`)

	ts.cs.duplicate = true
	rec = ts.do(http.MethodPost, "/api/customer-services", `{"customer_id":"1","service_id":"10","unit_price":"2.50"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodGet, "/api/customer-services/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/customer-services/20/rule-groups", `{"name":"ca","logic_operator":"AND","rules":[{"field":"ship_to_state","operator":"eq","value":"CA"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20", ts.rules.lastGroup.CustomerServiceID)

	rec = ts.do(http.MethodPost, "/api/customer-services/20/rule-groups", `{"name":"empty","logic_operator":"AND","rules":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_rule_group", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(http.MethodPut, "/api/rules/1/tier-config", `{"ranges":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_tier_config", decodeError(t, rec).Errors[0].Code)
}
