package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
)

type createServiceRequest struct {
	Name       string `json:"name" binding:"required"`
	ChargeType string `json:"charge_type" binding:"required"`
}

func (s *Server) CreateService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerServiceSvc.CreateService(c.Request.Context(), csdomain.CreateServiceRequest{
		Name:       strings.TrimSpace(req.Name),
		ChargeType: strings.TrimSpace(req.ChargeType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createCustomerServiceRequest struct {
	CustomerID string          `json:"customer_id" binding:"required"`
	ServiceID  string          `json:"service_id" binding:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SKUs       []string        `json:"skus"`
}

func (s *Server) CreateCustomerService(c *gin.Context) {
	var req createCustomerServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerServiceSvc.CreateCustomerService(c.Request.Context(), csdomain.CreateCustomerServiceRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		ServiceID:  strings.TrimSpace(req.ServiceID),
		UnitPrice:  req.UnitPrice,
		SKUs:       req.SKUs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerService(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.customerServiceSvc.GetCustomerService(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerServices(c *gin.Context) {
	customerID := strings.TrimSpace(c.Param("id"))

	resp, err := s.customerServiceSvc.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
