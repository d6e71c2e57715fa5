package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
)

type createProductRequest struct {
	CustomerID string `json:"customer_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	CaseSize   int64  `json:"case_size"`
	Unit       string `json:"unit"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Create(c.Request.Context(), productdomain.CreateProductRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		SKU:        strings.TrimSpace(req.SKU),
		Name:       strings.TrimSpace(req.Name),
		CaseSize:   req.CaseSize,
		Unit:       strings.TrimSpace(req.Unit),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
