package notifications

import "html/template"

var deliveryCodeTemplate = template.Must(template.New("delivery_code").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933;">
    <p>Hi {{.Name}},</p>
    <p>Your order <strong>#{{.OrderRef}}</strong> is out for delivery. Share this code with the delivery partner once you have received it:</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
    <p>The code expires in {{.ExpiresIn}}. Never share it before the package is in your hands.</p>
    <p>{{.StoreName}}</p>
  </body>
</html>`))

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933;">
    <p>Hi {{.Name}},</p>
    <p>We received your payment of <strong>{{.Total}}</strong>. Thank you for shopping with us.</p>
    {{range .Orders}}
    <h4>Order #{{.Ref}}</h4>
    <table cellpadding="4" style="border-collapse: collapse;">
      {{range .Lines}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td style="text-align: right;">{{.Amount}}</td></tr>
      {{end}}
      {{if .Shipping}}<tr><td colspan="2">Shipping</td><td style="text-align: right;">{{.Shipping}}</td></tr>{{end}}
      {{if .Discount}}<tr><td colspan="2">Discount</td><td style="text-align: right;">-{{.Discount}}</td></tr>{{end}}
      <tr><td colspan="2"><strong>Total</strong></td><td style="text-align: right;"><strong>{{.Total}}</strong></td></tr>
    </table>
    {{end}}
  </body>
</html>`))
