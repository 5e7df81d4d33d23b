package orders

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"golang.org/x/text/language"
	textmessage "golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed invoice.html.tmpl
var invoiceSource string

var invoiceTemplate = template.Must(template.New("invoice").Parse(invoiceSource))

// DefaultBrand is printed when Invoice.Brand is empty.
const DefaultBrand = "Storefront"

// Invoice is the input of RenderInvoice.
type Invoice struct {
	Order        Order
	CustomerName string
	Email        string
	Brand        string
}

type invoiceRow struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

type invoiceView struct {
	Brand          string
	CustomerName   string
	Email          string
	OrderNumber    string
	Date           string
	Pickup         bool
	PickupLocation string
	Items          []invoiceRow
	Total          string
}

var pricePrinter = textmessage.NewPrinter(language.English)

// FormatPrice renders an amount in rupees with two decimals and grouping.
func FormatPrice(v float64) string {
	return "₹" + pricePrinter.Sprint(number.Decimal(v, number.Scale(2)))
}

// RenderInvoice writes the HTML invoice for inv.Order to w.
func RenderInvoice(w io.Writer, inv Invoice) error {
	o := inv.Order

	view := invoiceView{
		Brand:          inv.Brand,
		CustomerName:   inv.CustomerName,
		Email:          inv.Email,
		OrderNumber:    o.ShortID(),
		Date:           o.CreatedAt.Format("02 Jan 2006, 3:04 PM"),
		Pickup:         o.DeliveryMode() == DeliveryModePickup,
		PickupLocation: o.PickupLocation(),
		Total:          FormatPrice(o.TotalPrice),
	}
	if view.Brand == "" {
		view.Brand = DefaultBrand
	}
	if view.CustomerName == "" {
		view.CustomerName = inv.Email
	}
	if view.CustomerName == "" {
		view.CustomerName = "Customer"
	}
	for _, it := range o.Items {
		view.Items = append(view.Items, invoiceRow{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    FormatPrice(it.Price),
			Total:    FormatPrice(it.LineTotal()),
		})
	}

	if err := invoiceTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render invoice %s: %w", o.ShortID(), err)
	}
	return nil
}
