package invoice

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/kitchencart/ecommerce/pkg/money"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// Shop is the seller block printed at the top of every invoice.
type Shop struct {
	Name         string
	AddressLines []string
}

// DefaultShop returns the seller details used when none are configured.
func DefaultShop() Shop {
	return Shop{
		Name:         "Kitchen Cart",
		AddressLines: []string{"123 Main Street", "New York, NY, 10025"},
	}
}

const (
	footerText = "Payment is due within 15 days. Thank you for your business."
	dateLayout = "02 Jan 2006"
)

// Renderer draws an order as a PDF invoice. Rendering never mutates the
// order and the same order always produces the same bytes.
type Renderer struct {
	shop Shop
}

// NewRenderer creates a Renderer for shop.
func NewRenderer(shop Shop) *Renderer {
	return &Renderer{shop: shop}
}

// Render writes the invoice for o to w.
func (r *Renderer) Render(o *domain.Order, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(o.CreatedAt)
	pdf.SetModificationDate(o.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetTitle("Invoice "+o.ID, true)
	pdf.SetAuthor(r.shop.Name, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 6, footerText, "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.header(pdf, tr)
	r.customerBlock(pdf, tr, o)
	r.itemTable(pdf, tr, o)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice %s: %w", o.ID, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write invoice %s: %w", o.ID, err)
	}
	return nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(110, 10, tr(r.shop.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	for _, line := range r.shop.AddressLines {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (r *Renderer) customerBlock(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	top := pdf.GetY()
	labels := []struct{ label, value string }{
		{"Invoice Number:", o.ID},
		{"Invoice Date:", o.CreatedAt.Format(dateLayout)},
		{"Balance Due:", money.Format(o.TotalAmount, o.Currency)},
	}
	for _, l := range labels {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(32, 6, l.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(70, 6, tr(l.value), "", 1, "L", false, 0, "")
	}

	addr := o.ShippingAddress
	pdf.SetXY(120, top)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Ship To:", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		addr.Name,
		addr.Street,
		addr.City + ", " + addr.State + ", " + addr.ZipCode,
		addr.Country,
	} {
		if line == "" {
			continue
		}
		pdf.CellFormat(0, 5, tr(line), "", 2, "L", false, 0, "")
	}

	pdf.SetX(15)
	if y := pdf.GetY(); y < top+24 {
		pdf.SetY(top + 24)
	}
	pdf.Ln(6)
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 90, "L"},
	{"Unit Cost", 32, "R"},
	{"Quantity", 24, "R"},
	{"Line Total", 34, "R"},
}

func (r *Renderer) itemTable(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.SetTextColor(30, 30, 30)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "B", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		values := []string{
			tr(it.Name),
			money.Format(it.Price, ""),
			strconv.Itoa(it.Quantity),
			money.Format(it.LineTotal(), ""),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 7, values[i], "", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	labelWidth := columns[0].width + columns[1].width + columns[2].width
	pdf.CellFormat(labelWidth, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(columns[3].width, 8, money.Format(o.TotalAmount, o.Currency), "T", 1, "R", false, 0, "")
}
