package receipt

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/possaas/internal/cache"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/migration"
	"github.com/smallbiznis/possaas/internal/providers/pdf"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	settingrepo "github.com/smallbiznis/possaas/internal/setting/repository"
	settingservice "github.com/smallbiznis/possaas/internal/setting/service"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/possaas/internal/tenant/repository"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturingRenderer struct {
	got pdf.Receipt
}

func (r *capturingRenderer) RenderReceipt(ctx context.Context, rc pdf.Receipt) ([]byte, error) {
	r.got = rc
	return []byte("%PDF-fake"), nil
}

var paidAt = time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, renderer pdf.Renderer, withSetting bool) *Service {
	t.Helper()

	central, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.MigrateCentral(central))
	seedCentral(t, central, withSetting)

	prov := config.DefaultProvisioningConfig()
	prov.CentralDomain = "pos.test"

	return NewService(Params{
		Tenants: tenantrepo.NewRepository(central),
		Settings: settingservice.NewService(settingservice.Params{
			Repo:  settingrepo.NewRepository(central),
			Cache: cache.New(nil),
			Log:   zap.NewNop(),
		}),
		Holder:   config.NewStaticProvisioningHolder(prov),
		Renderer: renderer,
		Log:      zap.NewNop(),
	})
}

func seedCentral(t *testing.T, central *gorm.DB, withSetting bool) {
	t.Helper()
	if withSetting {
		require.NoError(t, central.Create(&settingdomain.GeneralSetting{
			ID:          1,
			SiteTitle:   "PosSaaS",
			Currency:    "USD",
			DevelopedBy: "SmallBiznis",
			CreatedAt:   paidAt,
		}).Error)
	}
	require.NoError(t, central.Create(&tenantdomain.Package{ID: 7001, Name: "Pro", CreatedAt: paidAt}).Error)
	require.NoError(t, central.Create(&tenantdomain.Tenant{
		ID:          "acme",
		Name:        "Jane Owner",
		Email:       "jane@acme.test",
		CompanyName: "Acme",
		PackageID:   7001,
		CreatedAt:   paidAt,
	}).Error)
	require.NoError(t, central.Create(&[]tenantdomain.TenantPayment{
		{ID: 9001, TenantID: "acme", PackageID: 7001, Amount: 29.99, PaidBy: "stripe", SubscriptionType: "monthly", Reference: "ch_1", CreatedAt: paidAt},
		{ID: 9002, TenantID: "acme", PackageID: 7001, Amount: 299, PaidBy: "paypal", SubscriptionType: "yearly", CreatedAt: paidAt.Add(24 * time.Hour)},
	}).Error)
}

func TestReceiptFormatsPayment(t *testing.T) {
	renderer := &capturingRenderer{}
	svc := newFixture(t, renderer, true)

	doc, err := svc.Receipt(context.Background(), " ACME ", "9001")
	require.NoError(t, err)
	assert.Equal(t, "receipt_acme_9001.pdf", doc.FileName)
	assert.Equal(t, []byte("%PDF-fake"), doc.Body)

	got := renderer.got
	assert.Equal(t, "9001", got.Number)
	assert.Equal(t, "PosSaaS", got.IssuedBy)
	assert.Equal(t, "Pro", got.Package)
	assert.Equal(t, "acme.pos.test", got.Domain)
	assert.Equal(t, "USD 29.99", got.Amount)
	assert.Equal(t, "2026-10-18", got.DatePaid)
	assert.Equal(t, "2026-11-17", got.ExpiryDate)
	assert.Equal(t, "ch_1", got.Reference)
}

func TestReceiptWithoutSettingsStillRenders(t *testing.T) {
	svc := newFixture(t, pdf.New(), false)

	doc, err := svc.Receipt(context.Background(), "acme", "9002")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))
}

func TestReceiptErrors(t *testing.T) {
	svc := newFixture(t, &capturingRenderer{}, true)
	ctx := context.Background()

	_, err := svc.Receipt(ctx, "acme", "abc")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = svc.Receipt(ctx, "ghost", "9001")
	assert.ErrorIs(t, err, tenantdomain.ErrTenantNotFound)

	_, err = svc.Receipt(ctx, "acme", "12345")
	assert.ErrorIs(t, err, tenantdomain.ErrPaymentNotFound)
}

func TestListPaymentsNewestFirst(t *testing.T) {
	svc := newFixture(t, &capturingRenderer{}, true)

	payments, err := svc.ListPayments(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "paypal", payments[0].PaidBy)
	assert.Equal(t, "stripe", payments[1].PaidBy)
}
