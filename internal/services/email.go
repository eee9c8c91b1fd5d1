package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
)

// EmailService sends receipt and reminder mail over SMTP. Sending is always
// best-effort for callers: a failure here must never roll back a payment.
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
	}
}

// SendHTML sends an HTML email.
func (s *EmailService) SendHTML(to []string, subject, htmlBody string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, htmlBody))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var receiptEmailTmpl = template.Must(template.New("receipt").Parse(`<html>
<body>
  <h2>Payment Receipt {{.Payment.ReceiptNumber}}</h2>
  <p>Dear {{.Student.FullName}},</p>
  <p>Your payment of {{.Payment.Amount}} for {{.Fee.Name}} ({{.Fee.AcademicSession}}) has been confirmed.</p>
  <table border="1" cellpadding="6" cellspacing="0">
    <tr><td>Reference</td><td>{{.Payment.Reference}}</td></tr>
    <tr><td>Receipt Number</td><td>{{.Payment.ReceiptNumber}}</td></tr>
    <tr><td>Installment</td><td>{{.Payment.InstallmentNumber}} of {{.Payment.TotalInstallments}}</td></tr>
    <tr><td>Total Paid</td><td>{{.Summary.TotalPaid}}</td></tr>
    <tr><td>Balance</td><td>{{.Summary.Balance}}</td></tr>
    <tr><td>Fully Paid</td><td>{{.Summary.IsFullyPaid}}</td></tr>
  </table>
  <p>Keep this receipt for your records. You can verify it any time with the reference above.</p>
</body>
</html>`))

var reminderEmailTmpl = template.Must(template.New("reminder").Parse(`<html>
<body>
  <p>Dear {{.StudentName}},</p>
  <p>Our records show an outstanding balance of {{.Balance}} on {{.FeeName}} for the {{.Session}} session.</p>
  <p>Please complete your payment through the student portal.</p>
</body>
</html>`))

// RenderReceiptEmail renders the receipt email body from a snapshot.
func RenderReceiptEmail(snapshot *ReceiptSnapshot) (string, error) {
	var buf bytes.Buffer
	if err := receiptEmailTmpl.Execute(&buf, snapshot); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReminderEmailData feeds the outstanding-balance reminder template.
type ReminderEmailData struct {
	StudentName string
	FeeName     string
	Session     string
	Balance     int64
}

// RenderReminderEmail renders the unpaid-fee reminder body.
func RenderReminderEmail(data ReminderEmailData) (string, error) {
	var buf bytes.Buffer
	if err := reminderEmailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
