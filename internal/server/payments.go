package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/possaas/internal/receipt"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
)

const pdfContentType = "application/pdf"

// ReceiptService lists tenant payments and renders their receipts.
type ReceiptService interface {
	ListPayments(ctx context.Context, tenantID string) ([]tenantdomain.TenantPayment, error)
	Receipt(ctx context.Context, tenantID, paymentID string) (*receipt.Document, error)
}

func provideReceiptService(s *receipt.Service) ReceiptService { return s }

func (s *Server) ListPayments(c *gin.Context) {
	payments, err := s.receipts.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) PaymentReceipt(c *gin.Context) {
	doc, err := s.receipts.Receipt(c.Request.Context(), c.Param("id"), c.Param("payment"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Data(http.StatusOK, pdfContentType, doc.Body)
}
