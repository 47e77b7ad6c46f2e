// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// AccountInfo carries the fields the account email templates need.
type AccountInfo struct {
	Username      string
	CustomerEmail string
	OTP           string
	OTPMinutes    int
	StoreName     string
	StoreURL      string
}

// OrderInfo carries the fields the order confirmation template needs.
type OrderInfo struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	StoreName     string
	StoreURL      string
	OrderDate     string
	Items         []OrderLine
	Subtotal      string
	Shipping      string
	Tax           string
	Total         string
	PaymentMethod string
	Address       string
}

// OrderLine represents a single item in an order confirmation.
type OrderLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

// Renderer provides methods to render email templates.
type Renderer struct {
	templates *template.Template
}

type emailTemplate struct {
	HTML string
	Text string
}

// NewRenderer creates a new email template renderer with built-in templates.
func NewRenderer() (*Renderer, error) {
	templates := map[string]emailTemplate{
		"verify_account":     {HTML: verifyAccountHTML, Text: verifyAccountText},
		"welcome":            {HTML: welcomeHTML, Text: welcomeText},
		"reset_password":     {HTML: resetPasswordHTML, Text: resetPasswordText},
		"password_changed":   {HTML: passwordChangedHTML, Text: passwordChangedText},
		"order_confirmation": {HTML: orderConfirmationHTML, Text: orderConfirmationText},
	}

	tmpl := template.New("email")
	for key, t := range templates {
		if _, err := tmpl.New(key + "_html").Parse(t.HTML); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
		if _, err := tmpl.New(key + "_text").Parse(t.Text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
	}

	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) render(templateName, to, subject string, data any) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer

	if err := r.templates.ExecuteTemplate(&htmlBuf, templateName+"_html", data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := r.templates.ExecuteTemplate(&textBuf, templateName+"_text", data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	return &Email{
		To:      to,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

// RenderVerifyAccount builds the account verification code email.
func (r *Renderer) RenderVerifyAccount(info *AccountInfo) (*Email, error) {
	subject := fmt.Sprintf("Verify your %s account", info.StoreName)
	return r.render("verify_account", info.CustomerEmail, subject, info)
}

// RenderWelcome builds the post-verification welcome email.
func (r *Renderer) RenderWelcome(info *AccountInfo) (*Email, error) {
	subject := fmt.Sprintf("Welcome to %s", info.StoreName)
	return r.render("welcome", info.CustomerEmail, subject, info)
}

// RenderResetPassword builds the password reset code email.
func (r *Renderer) RenderResetPassword(info *AccountInfo) (*Email, error) {
	subject := fmt.Sprintf("Reset your %s password", info.StoreName)
	return r.render("reset_password", info.CustomerEmail, subject, info)
}

// RenderPasswordChanged builds the reset confirmation email.
func (r *Renderer) RenderPasswordChanged(info *AccountInfo) (*Email, error) {
	subject := fmt.Sprintf("Your %s password was changed", info.StoreName)
	return r.render("password_changed", info.CustomerEmail, subject, info)
}

// RenderOrderConfirmation builds the order confirmation email.
func (r *Renderer) RenderOrderConfirmation(info *OrderInfo) (*Email, error) {
	subject := fmt.Sprintf("Order Confirmed - %s - %s", info.OrderNumber, info.StoreName)
	return r.render("order_confirmation", info.CustomerEmail, subject, info)
}

// SendOrderConfirmation renders and sends an order confirmation email.
// A nil provider is a no-op so callers need no guard when email is not
// configured.
func SendOrderConfirmation(ctx context.Context, p Provider, info *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.RenderOrderConfirmation(info)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

const verifyAccountText = `Hi {{.Username}},

Your {{.StoreName}} verification code is:

    {{.OTP}}

The code expires in {{.OTPMinutes}} minutes. If you did not create an
account, you can ignore this email.

{{.StoreName}}
{{.StoreURL}}
`

const verifyAccountHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Verify Your Account</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .code { background: white; padding: 20px; border-radius: 6px; margin: 15px 0; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 6px; color: #2563eb; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Verify Your Account</h1>
    <p>Hi {{.Username}}, one more step to get started.</p>
  </div>
  <div class="content">
    <p>Enter this code to verify your {{.StoreName}} account:</p>
    <div class="code">{{.OTP}}</div>
    <p>The code expires in {{.OTPMinutes}} minutes. If you did not create an account, you can ignore this email.</p>
  </div>
  <div class="footer">
    <p><a href="{{.StoreURL}}">{{.StoreName}}</a></p>
  </div>
</body>
</html>
`

const welcomeText = `Hi {{.Username}},

Your account is verified and ready. Happy shopping!

{{.StoreName}}
{{.StoreURL}}
`

const welcomeHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #059669; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Welcome to {{.StoreName}}!</h1>
  </div>
  <div class="content">
    <p>Hi {{.Username}},</p>
    <p>Your account is verified and ready. Happy shopping!</p>
  </div>
  <div class="footer">
    <p><a href="{{.StoreURL}}">{{.StoreName}}</a></p>
  </div>
</body>
</html>
`

const resetPasswordText = `Hi {{.Username}},

Your {{.StoreName}} password reset code is:

    {{.OTP}}

The code expires in {{.OTPMinutes}} minutes. If you did not request a
reset, you can ignore this email and your password stays unchanged.

{{.StoreName}}
{{.StoreURL}}
`

const resetPasswordHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Reset Your Password</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #dc2626; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .code { background: white; padding: 20px; border-radius: 6px; margin: 15px 0; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 6px; color: #dc2626; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Reset Your Password</h1>
  </div>
  <div class="content">
    <p>Hi {{.Username}},</p>
    <p>Enter this code to reset your {{.StoreName}} password:</p>
    <div class="code">{{.OTP}}</div>
    <p>The code expires in {{.OTPMinutes}} minutes. If you did not request a reset, you can ignore this email and your password stays unchanged.</p>
  </div>
  <div class="footer">
    <p><a href="{{.StoreURL}}">{{.StoreName}}</a></p>
  </div>
</body>
</html>
`

const passwordChangedText = `Hi {{.Username}},

Your {{.StoreName}} password was just changed. If this was you, no
action is needed. If not, reset your password immediately.

{{.StoreName}}
{{.StoreURL}}
`

const passwordChangedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Password Changed</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Password Changed</h1>
  </div>
  <div class="content">
    <p>Hi {{.Username}},</p>
    <p>Your {{.StoreName}} password was just changed. If this was you, no action is needed. If not, reset your password immediately.</p>
  </div>
  <div class="footer">
    <p><a href="{{.StoreURL}}">{{.StoreName}}</a></p>
  </div>
</body>
</html>
`

const orderConfirmationText = `Thank you for your order!

Order Number: {{.OrderNumber}}
Order Date: {{.OrderDate}}
Payment Method: {{.PaymentMethod}}

Items:
{{range .Items}}
- {{.Name}} x{{.Quantity}} - {{.LineTotal}}
{{end}}

Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Tax: {{.Tax}}
Total: {{.Total}}

Shipping to:
{{.Address}}

Thank you for shopping with {{.StoreName}}!
{{.StoreURL}}
`

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Confirmation</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .order-info { background: white; padding: 15px; border-radius: 6px; margin: 15px 0; }
    .items-table { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .items-table th { text-align: left; padding: 10px; background: #f3f4f6; border-bottom: 2px solid #e5e7eb; }
    .items-table td { padding: 10px; border-bottom: 1px solid #e5e7eb; }
    .total { font-size: 18px; font-weight: bold; text-align: right; padding: 15px 0; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Order Confirmed!</h1>
    <p>Thank you for your order, {{.CustomerName}}</p>
  </div>
  <div class="content">
    <div class="order-info">
      <strong>Order Number:</strong> {{.OrderNumber}}<br>
      <strong>Order Date:</strong> {{.OrderDate}}<br>
      <strong>Payment Method:</strong> {{.PaymentMethod}}
    </div>

    <h3>Order Summary</h3>
    <table class="items-table">
      <thead>
        <tr>
          <th>Item</th>
          <th>Qty</th>
          <th>Price</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{.Quantity}}</td>
          <td>{{.LineTotal}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="total">
      <p>Subtotal: {{.Subtotal}}</p>
      <p>Shipping: {{.Shipping}}</p>
      <p>Tax: {{.Tax}}</p>
      <p>Total: {{.Total}}</p>
    </div>

    <h3>Shipping To</h3>
    <p>{{.Address}}</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.StoreURL}}">{{.StoreName}}</a></p>
  </div>
</body>
</html>
`
