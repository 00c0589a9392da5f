package pdf

import (
	"context"
	"errors"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrEmptyReceipt = errors.New("receipt has no number")

// Receipt is a paid subscription, already formatted for print.
type Receipt struct {
	Number      string
	IssuedBy    string
	DevelopedBy string

	TenantName  string
	CompanyName string
	Email       string
	Domain      string

	Package          string
	SubscriptionType string
	PaidBy           string
	Reference        string
	DatePaid         string
	ExpiryDate       string
	Amount           string
}

// Renderer turns documents into PDF bytes.
type Renderer interface {
	RenderReceipt(ctx context.Context, r Receipt) ([]byte, error)
}

type marotoRenderer struct{}

func New() Renderer {
	return marotoRenderer{}
}

func (marotoRenderer) RenderReceipt(ctx context.Context, r Receipt) ([]byte, error) {
	if r.Number == "" {
		return nil, ErrEmptyReceipt
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(6, r.IssuedBy, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Receipt number: "+r.Number, props.Text{Top: 0}),
			text.New("Date paid: "+r.DatePaid, props.Text{Top: 4}),
			text.New("Paid by: "+r.PaidBy, props.Text{Top: 8}),
			text.New("Reference: "+r.Reference, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(r.TenantName, props.Text{Top: 5}),
			text.New(r.CompanyName, props.Text{Top: 9}),
			text.New(r.Email, props.Text{Top: 13}),
			text.New(r.Domain, props.Text{Top: 17}),
		),
		col.New(6),
	)

	m.AddRow(15,
		text.NewCol(12, r.Amount+" paid on "+r.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Plan", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Billing", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Valid until", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
	m.AddRow(12,
		text.NewCol(6, r.Package, props.Text{Size: 9}),
		text.NewCol(2, r.SubscriptionType, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, r.ExpiryDate, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, r.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, r.Amount, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if r.DevelopedBy != "" {
		m.AddRow(10,
			text.NewCol(12, "Powered by "+r.DevelopedBy, props.Text{Size: 8, Top: 4, Align: align.Center}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
