package utils

import (
	"fmt"
	"html"
	"net/smtp"
	"os"
	"strings"

	"storefront-backend/models"

	"go.uber.org/zap"
)

type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func (c *EmailConfig) Configured() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

func SendEmail(to, subject, htmlBody string) error {
	config := GetEmailConfig()
	if !config.Configured() {
		return fmt.Errorf("SMTP not configured")
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		config.From, to, subject)
	msg := []byte(headers + htmlBody)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	addr := config.Host + ":" + config.Port
	return smtp.SendMail(addr, auth, config.From, []string{to}, msg)
}

// EmailNotifier sends customer e-mails in the background. Delivery
// failures are logged and otherwise ignored.
type EmailNotifier struct {
	Send     func(to, subject, htmlBody string) error
	Log      *zap.Logger
	Currency string
	StoreURL string
}

func NewEmailNotifier(log *zap.Logger, currency, storeURL string) *EmailNotifier {
	return &EmailNotifier{Send: SendEmail, Log: log, Currency: currency, StoreURL: storeURL}
}

func (n *EmailNotifier) Welcome(user *models.User) {
	subject := "Welcome to our store!"
	body := fmt.Sprintf(`<h2>Welcome, %s!</h2>
<p>Thank you for creating your account. You can now:</p>
<ul>
<li>Keep your cart between visits and devices</li>
<li>Save products to your wishlist</li>
<li>Review the products you bought</li>
</ul>
<p>Happy shopping!</p>`, firstName(user.Name))
	n.deliver(user.Email, subject, body)
}

func (n *EmailNotifier) OrderPlaced(order *models.Order, user *models.User) {
	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "<li>%s &times; %d: %s %s</li>\n",
			html.EscapeString(item.Product.Title), item.Quantity,
			models.OrderItemTotal(item).StringFixed(2), n.Currency)
	}

	subject := fmt.Sprintf("Order Confirmed - #%s", order.OrderNumber)
	body := fmt.Sprintf(`<h2>Order Confirmed!</h2>
<p>Hi %s,</p>
<p>Your order <strong>#%s</strong> has been placed.</p>
<ul>
%s</ul>
<p>Order total: <strong>%s %s</strong></p>
<p>We'll let you know when the payment is confirmed and when your order ships.</p>`,
		firstName(user.Name), order.OrderNumber, lines.String(), order.TotalAmount.StringFixed(2), n.Currency)
	n.deliver(recipient(order, user), subject, body)
}

func (n *EmailNotifier) OrderStatusChanged(order *models.Order, user *models.User) {
	subject := fmt.Sprintf("Order #%s - Status Update", order.OrderNumber)
	body := fmt.Sprintf(`<h2>Order Status Update</h2>
<p>Hi %s,</p>
<p>Your order <strong>#%s</strong> is now: <strong>%s</strong></p>`,
		firstName(user.Name), order.OrderNumber, order.Status)
	if n.StoreURL != "" {
		body += fmt.Sprintf("\n<p><a href=\"%s/orders/%s\">View your order</a></p>", n.StoreURL, order.ID)
	}
	n.deliver(recipient(order, user), subject, body)
}

func (n *EmailNotifier) deliver(to, subject, body string) {
	if to == "" {
		return
	}
	go func() {
		if err := n.Send(to, subject, body); err != nil {
			n.Log.Warn("failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

// recipient prefers the contact address given at checkout.
func recipient(order *models.Order, user *models.User) string {
	if order.Email != "" {
		return order.Email
	}
	if user != nil {
		return user.Email
	}
	return ""
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return html.EscapeString(fields[0])
}
