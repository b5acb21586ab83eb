package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/vichambarde/serverroom/internal/models"
)

// Message kinds, used as metric labels.
const (
	KindRequestIssued = "request_issued"
	KindLowStock      = "low_stock"
)

// Message is a single outbound HTML email.
type Message struct {
	Kind     string
	To       string
	Subject  string
	HTMLBody string
}

var (
	requestIssuedTmpl = template.Must(template.New("request_issued").Parse(`
<h3>A new component has been issued:</h3>
<table border="1" cellpadding="5" cellspacing="0">
  <tr><td><strong>Full Name:</strong></td><td>{{.FullName}}</td></tr>
  <tr><td><strong>Department:</strong></td><td>{{.Department}}</td></tr>
  <tr><td><strong>Item Taken:</strong></td><td>{{.ItemTaken}}</td></tr>
  <tr><td><strong>Quantity:</strong></td><td>{{.Quantity}}</td></tr>
  <tr><td><strong>Purpose:</strong></td><td>{{if .Purpose}}{{.Purpose}}{{else}}N/A{{end}}</td></tr>
</table>
`))

	lowStockTmpl = template.Must(template.New("low_stock").Parse(
		`<h3>The quantity for {{.Name}} is low. Only {{.Remaining}} left.</h3>`))
)

// RequestIssued builds the notification sent for every successful request.
func RequestIssued(to string, e models.Entry) (Message, error) {
	var buf bytes.Buffer
	if err := requestIssuedTmpl.Execute(&buf, e); err != nil {
		return Message{}, fmt.Errorf("render request notification: %w", err)
	}
	return Message{
		Kind:     KindRequestIssued,
		To:       to,
		Subject:  "New Component Request",
		HTMLBody: buf.String(),
	}, nil
}

// LowStock builds the alert sent when an item drops to the low-stock threshold.
func LowStock(to, itemName string, remaining int) (Message, error) {
	var buf bytes.Buffer
	data := struct {
		Name      string
		Remaining int
	}{itemName, remaining}
	if err := lowStockTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render low stock alert: %w", err)
	}
	return Message{
		Kind:     KindLowStock,
		To:       to,
		Subject:  "Low Stock Alert: " + itemName,
		HTMLBody: buf.String(),
	}, nil
}
