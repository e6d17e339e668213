// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// ReceiptInfo carries the fields rendered into the order receipt.
type ReceiptInfo struct {
	CustomerName      string
	CustomerEmail     string
	StoreName         string
	OrderID           string
	TransactionNumber string
	Material          string
	Quantity          int
	Subtotal          string
	Shipping          string
	Total             string
	PaymentMethod     string
	OrderDate         string
}

const receiptSubject = "Payment received - {{.TransactionNumber}} - {{.StoreName}}"

const receiptText = `Hi {{.CustomerName}},

Thanks for your order with {{.StoreName}}!

Transaction: {{.TransactionNumber}}
Order: {{.OrderID}}
Date: {{.OrderDate}}

{{.Quantity}} x {{.Material}} card
Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Total charged: {{.Total}} ({{.PaymentMethod}})

We'll let you know when your cards ship.

{{.StoreName}}
`

const receiptHTML = `<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Thanks for your order, {{.CustomerName}}!</h2>
  <p>Your payment to {{.StoreName}} has been received.</p>
  <table cellpadding="4">
    <tr><td>Transaction</td><td><strong>{{.TransactionNumber}}</strong></td></tr>
    <tr><td>Order</td><td>{{.OrderID}}</td></tr>
    <tr><td>Date</td><td>{{.OrderDate}}</td></tr>
    <tr><td>Item</td><td>{{.Quantity}} &times; {{.Material}} card</td></tr>
    <tr><td>Subtotal</td><td>{{.Subtotal}}</td></tr>
    <tr><td>Shipping</td><td>{{.Shipping}}</td></tr>
    <tr><td><strong>Total</strong></td><td><strong>{{.Total}}</strong> ({{.PaymentMethod}})</td></tr>
  </table>
  <p>We'll let you know when your cards ship.</p>
</body>
</html>`

// SendReceipt renders and sends the order receipt through the provider.
func SendReceipt(ctx context.Context, provider Provider, info ReceiptInfo) error {
	if provider == nil {
		return fmt.Errorf("provider is required")
	}

	subject, err := render("receipt_subject", receiptSubject, info)
	if err != nil {
		return err
	}
	text, err := render("receipt_text", receiptText, info)
	if err != nil {
		return err
	}
	html, err := render("receipt_html", receiptHTML, info)
	if err != nil {
		return err
	}

	return provider.SendEmail(ctx, &Email{
		To:      info.CustomerEmail,
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
}

func render(name, tmpl string, info ReceiptInfo) (string, error) {
	parsed, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, info); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
