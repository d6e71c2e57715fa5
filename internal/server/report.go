package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	billingreportdomain "github.com/smallbiznis/orderbill/internal/billingreport/domain"
	"github.com/smallbiznis/orderbill/internal/billingreport/format"
)

type generateReportRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	// Absent selects every assignment of the customer; an empty list selects none.
	CustomerServiceIDs *[]string `json:"customer_service_ids"`
}

type reportSummary struct {
	ID          string        `json:"id"`
	CustomerID  string        `json:"customer_id"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	TotalAmount format.Amount `json:"total_amount"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (s *Server) GenerateReport(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_date_range", "start_date must be YYYY-MM-DD"))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_date_range", "end_date must be YYYY-MM-DD"))
		return
	}

	genReq := billingreportdomain.GenerateRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		StartDate:  start,
		EndDate:    end,
	}
	if req.CustomerServiceIDs != nil {
		genReq.CustomerServiceIDs = append([]string{}, (*req.CustomerServiceIDs)...)
	}

	report, err := s.reportSvc.Generate(c.Request.Context(), genReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": format.ToStructured(report)})
}

func (s *Server) GetReport(c *gin.Context) {
	report, err := s.reportSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": format.ToStructured(report)})
}

func (s *Server) ExportReport(c *gin.Context) {
	report, err := s.reportSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, contentType, err := format.Render(report, c.Query("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if contentType == "text/csv" {
		c.Header("Content-Disposition", "attachment; filename=billing-report-"+report.ID.String()+".csv")
	}
	c.Data(http.StatusOK, contentType, body)
}

func (s *Server) ListCustomerReports(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reports, err := s.reportSvc.ListByCustomer(c.Request.Context(), strings.TrimSpace(c.Param("id")), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]reportSummary, 0, len(reports))
	for _, report := range reports {
		resp = append(resp, reportSummary{
			ID:          report.ID.String(),
			CustomerID:  report.CustomerID.String(),
			StartDate:   report.StartDate.Format(time.DateOnly),
			EndDate:     report.EndDate.Format(time.DateOnly),
			TotalAmount: format.Amount(report.TotalAmount),
			CreatedAt:   report.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReport(c *gin.Context) {
	if err := s.reportSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
