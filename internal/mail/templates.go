package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cookieshop/backend/internal/domain/order"
)

// The three notification bodies are pure string formatters over an order:
// they do no I/O and are usable independently of delivery.

var tmplFuncs = template.FuncMap{
	"price": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

func mustTmpl(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(tmplFuncs).Parse(text))
}

var confirmationTmpl = mustTmpl("confirmation", `<html>
<body>
  <h2>Thank you for your order, {{.Customer.Name}}!</h2>
  <p>Your order <strong>{{.ID}}</strong> was received and is now <strong>{{.Status}}</strong>.</p>
  <table border="1" cellpadding="6" cellspacing="0">
    <tr><th>Item</th><th>Qty</th><th>Price</th></tr>
    {{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{price .Price}}</td></tr>
    {{end}}
  </table>
  <p>Total: <strong>{{price .Total}}</strong></p>
  <p>Delivery address: {{.Customer.Address}}</p>
</body>
</html>`)

var adminAlertTmpl = mustTmpl("admin_alert", `<html>
<body>
  <h2>New order {{.ID}}</h2>
  <p>Placed by {{.Customer.Name}} ({{.Customer.Email}}, {{.Customer.Phone}}).</p>
  <table border="1" cellpadding="6" cellspacing="0">
    <tr><th>Item</th><th>Qty</th><th>Price</th></tr>
    {{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{price .Price}}</td></tr>
    {{end}}
  </table>
  <p>Total: <strong>{{price .Total}}</strong></p>
  <p>Ship to: {{.Customer.Address}}</p>
</body>
</html>`)

var statusUpdateTmpl = mustTmpl("status_update", `<html>
<body>
  <h2>Order update</h2>
  <p>Hi {{.Customer.Name}}, your order <strong>{{.ID}}</strong> is now
  <strong>{{.Status}}</strong>.</p>
</body>
</html>`)

// ConfirmationSubject returns the subject line for a customer confirmation.
func ConfirmationSubject(o *order.Order) string {
	return fmt.Sprintf("Order %s confirmed", o.ID)
}

// AdminAlertSubject returns the subject line for an admin new-order alert.
func AdminAlertSubject(o *order.Order) string {
	return fmt.Sprintf("New order %s received", o.ID)
}

// StatusUpdateSubject returns the subject line for a status-change notice.
// The subject carries the new status verbatim.
func StatusUpdateSubject(o *order.Order) string {
	return fmt.Sprintf("Order %s update: %s", o.ID, o.Status)
}

// ConfirmationHTML renders the customer order-confirmation body.
func ConfirmationHTML(o *order.Order) string {
	return render(confirmationTmpl, o)
}

// AdminAlertHTML renders the admin new-order alert body.
func AdminAlertHTML(o *order.Order) string {
	return render(adminAlertTmpl, o)
}

// StatusUpdateHTML renders the customer status-change body.
func StatusUpdateHTML(o *order.Order) string {
	return render(statusUpdateTmpl, o)
}

func render(t *template.Template, o *order.Order) string {
	var b strings.Builder
	if err := t.Execute(&b, o); err != nil {
		// Templates are static and the data funcs cannot fail; keep a plain
		// fallback so a future template edit cannot lose a notification.
		return fmt.Sprintf("<html><body><p>Order %s is %s.</p></body></html>", o.ID, o.Status)
	}
	return b.String()
}
