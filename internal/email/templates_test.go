package email

import (
	"strings"
	"testing"
)

func TestRenderVerifyAccount(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	msg, err := renderer.RenderVerifyAccount(&AccountInfo{
		Username:      "amina",
		CustomerEmail: "amina@example.com",
		OTP:           "482913",
		OTPMinutes:    10,
		StoreName:     "Kasuwa",
		StoreURL:      "https://kasuwa.example",
	})
	if err != nil {
		t.Fatalf("RenderVerifyAccount() error = %v", err)
	}

	if msg.To != "amina@example.com" {
		t.Errorf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "Kasuwa") {
		t.Errorf("subject %q does not name the store", msg.Subject)
	}
	for _, body := range []string{msg.Text, msg.HTML} {
		if !strings.Contains(body, "482913") {
			t.Error("body does not contain the code")
		}
		if !strings.Contains(body, "10 minutes") {
			t.Error("body does not state the expiry window")
		}
	}
}

func TestRenderOrderConfirmation(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	msg, err := renderer.RenderOrderConfirmation(&OrderInfo{
		OrderNumber:   "3f1c",
		CustomerName:  "Amina",
		CustomerEmail: "amina@example.com",
		StoreName:     "Kasuwa",
		StoreURL:      "https://kasuwa.example",
		OrderDate:     "March 14, 2026",
		Items: []OrderLine{
			{Name: "Leather Bag", Quantity: 2, UnitPrice: "42.50", LineTotal: "85.00"},
		},
		Subtotal:      "85.00",
		Shipping:      "10.00",
		Tax:           "7.23",
		Total:         "102.23",
		PaymentMethod: "paystack",
		Address:       "12 Allen Avenue, Lagos 100001, NG",
	})
	if err != nil {
		t.Fatalf("RenderOrderConfirmation() error = %v", err)
	}

	for _, want := range []string{"Leather Bag", "85.00", "10.00", "7.23", "102.23"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
}

func TestSendOrderConfirmationNilProviderIsNoop(t *testing.T) {
	t.Parallel()

	if err := SendOrderConfirmation(t.Context(), nil, &OrderInfo{}); err != nil {
		t.Fatalf("SendOrderConfirmation() with nil provider error = %v", err)
	}
}

func TestNewProviderRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := NewProvider(Config{Provider: "sendgrid"}); err == nil {
		t.Fatal("NewProvider() accepted an unsupported provider")
	}
	if _, err := NewProvider(Config{Provider: "resend", APIKey: "re_123", From: "shop@kasuwa.example"}); err != nil {
		t.Fatalf("NewProvider(resend) error = %v", err)
	}
}
