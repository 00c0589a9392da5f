package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
)

func (s *Server) CreateTenant(c *gin.Context) {
	var req provisioningdomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.provisioning.CreateTenant(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) ChangePlan(c *gin.Context) {
	var req provisioningdomain.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.TenantID = strings.TrimSpace(c.Param("id"))

	result, err := s.provisioning.ChangePlan(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type subdomainResponse struct {
	TenantID   string `json:"tenant_id"`
	Registered bool   `json:"registered"`
}

// AddSubdomain reports registered=false when the control panel refused the
// call; the tenant itself is unaffected.
func (s *Server) AddSubdomain(c *gin.Context) {
	tenantID := strings.TrimSpace(c.Param("id"))
	ok, err := s.provisioning.AddSubdomain(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subdomainResponse{TenantID: tenantID, Registered: ok}})
}

func (s *Server) RemoveSubdomain(c *gin.Context) {
	tenantID := strings.TrimSpace(c.Param("id"))
	ok, err := s.provisioning.RemoveSubdomain(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subdomainResponse{TenantID: tenantID, Registered: !ok}})
}
