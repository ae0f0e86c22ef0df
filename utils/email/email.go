package email

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends report status notifications via SendGrid.
type Notifier struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewNotifier creates a new email notifier
func NewNotifier(apiKey, fromName, fromEmail string) *Notifier {
	return &Notifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

var statusLines = map[string]string{
	"in-progress": "Your report is now being worked on.",
	"resolved":    "Your report has been resolved. Thank you for helping improve your neighborhood.",
	"rejected":    "Your report has been reviewed and closed without action.",
}

// statusLine picks the notification body line for a status, with a generic
// fallback for statuses the map does not know.
func statusLine(status string) string {
	if line, ok := statusLines[status]; ok {
		return line
	}
	return fmt.Sprintf("Your report status changed to %s.", status)
}

// SendStatusUpdate notifies a reporter that their report changed status.
func (n *Notifier) SendStatusUpdate(recipientEmail, reportTitle, status string) error {
	line := statusLine(status)

	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(recipientEmail, recipientEmail)
	subject := fmt.Sprintf("Update on your report: %s", reportTitle)

	plainText := fmt.Sprintf(`Hello,

%s

Report: %s
New status: %s

Best regards,
The %s Team`, line, reportTitle, status, n.fromName)

	htmlContent := fmt.Sprintf(`<p>Hello,</p>
<p>%s</p>
<p><strong>Report:</strong> %s<br>
<strong>New status:</strong> %s</p>
<p>Best regards,<br>The %s Team</p>`, line, reportTitle, status, n.fromName)

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
