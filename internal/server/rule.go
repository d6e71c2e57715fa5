package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
)

func (s *Server) CreateRuleGroup(c *gin.Context) {
	var req ruledomain.CreateRuleGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.CustomerServiceID = strings.TrimSpace(c.Param("id"))

	resp, err := s.ruleSvc.CreateRuleGroup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRuleGroups(c *gin.Context) {
	customerServiceID := strings.TrimSpace(c.Param("id"))

	resp, err := s.ruleSvc.ListRuleGroups(c.Request.Context(), customerServiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetTierConfig(c *gin.Context) {
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ruleSvc.SetTierConfig(c.Request.Context(), strings.TrimSpace(c.Param("id")), raw)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
