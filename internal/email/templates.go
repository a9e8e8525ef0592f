package email

import (
	"fmt"
	"html/template"
	"strings"
)

// Line is one ordered variant
type Line struct {
	Name      string
	Color     string
	Storage   string
	Quantity  int
	UnitPrice int
}

// Confirmation is everything the order confirmation shows
type Confirmation struct {
	OrderID      string
	StoreName    string
	Currency     string
	CustomerName string
	Items        []Line
	Subtotal     int
	Shipping     int
	Tax          int
	Total        int
}

// ConfirmationSubject is the mail subject line
func ConfirmationSubject(c Confirmation) string {
	store := c.StoreName
	if store == "" {
		store = "Your order"
	}
	return fmt.Sprintf("%s: order %s confirmed", store, c.OrderID)
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": func(amount int, currency string) string { return FormatMoney(amount, currency) },
	"mul":   func(a, b int) int { return a * b },
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1d1d1f; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #1d1d1f; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order{{if .CustomerName}}, {{.CustomerName}}{{end}}</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f5f5f7; padding: 15px; border-radius: 5px; margin: 0 0 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #6e6e73;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.OrderID}}</p>
		</div>

		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f5f5f7;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Price</th>
					<th style="padding: 12px; text-align: right;">Line total</th>
				</tr>
			</thead>
			<tbody>
			{{- range .Items}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{.Name}}{{if or .Color .Storage}}<br><span style="font-size: 12px; color: #6e6e73;">{{.Color}}{{if and .Color .Storage}} / {{end}}{{.Storage}}</span>{{end}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{money .UnitPrice $.Currency}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{money (mul .UnitPrice .Quantity) $.Currency}}</td>
				</tr>
			{{- end}}
			</tbody>
		</table>

		<table style="width: 100%; border-collapse: collapse;">
			<tr><td style="padding: 4px 12px; text-align: right; color: #6e6e73;">Subtotal</td><td style="padding: 4px 12px; text-align: right; width: 120px;">{{money .Subtotal .Currency}}</td></tr>
			<tr><td style="padding: 4px 12px; text-align: right; color: #6e6e73;">Shipping</td><td style="padding: 4px 12px; text-align: right;">{{if eq .Shipping 0}}Free{{else}}{{money .Shipping .Currency}}{{end}}</td></tr>
			<tr><td style="padding: 4px 12px; text-align: right; color: #6e6e73;">Tax</td><td style="padding: 4px 12px; text-align: right;">{{money .Tax .Currency}}</td></tr>
			<tr><td style="padding: 12px; text-align: right; font-weight: bold;">Total</td><td style="padding: 12px; text-align: right; font-size: 20px; font-weight: bold;">{{money .Total .Currency}}</td></tr>
		</table>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #86868b; margin-bottom: 0;">
			This message was sent automatically{{if .StoreName}} by {{.StoreName}}{{end}}. Reply to this email if anything looks wrong.
		</p>
	</div>
</body>
</html>`))

// BuildOrderConfirmationBody renders the HTML body of the confirmation email
func BuildOrderConfirmationBody(c Confirmation) (string, error) {
	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, c); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return b.String(), nil
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
}

// FormatMoney renders an amount with the currency symbol, or the ISO code
// when no symbol is known
func FormatMoney(amount int, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if sym, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sign + sym + formatNumber(amount)
	}
	if currency == "" {
		return sign + formatNumber(amount)
	}
	return sign + formatNumber(amount) + " " + strings.ToUpper(currency)
}

// formatNumber formats a number with comma separators
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
