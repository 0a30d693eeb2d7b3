package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// WelcomeDetails carries the membership details shown in the welcome email
type WelcomeDetails struct {
	PlanName  string
	StartDate string
	EndDate   string
	Amount    float64
	// Password is the generated temporary password; empty when the caller
	// supplied their own or account provisioning failed
	Password string
}

// ReceiptDetails carries the fields printed on a payment receipt
type ReceiptDetails struct {
	ReceiptRef       string
	Amount           float64
	PaymentMethod    string
	PaymentDate      string
	PlanName         string
	RemainingBalance float64
}

// Notifier dispatches member-facing notifications. Failures never abort
// the caller's primary operation.
type Notifier interface {
	SendWelcome(email, name string, details WelcomeDetails) error
	SendReceipt(email, name string, details ReceiptDetails) error
}

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	gymName  string
}

func NewEmailService() *EmailService {
	gymName := os.Getenv("GYM_NAME")
	if gymName == "" {
		gymName = "VT Fitness"
	}
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
		gymName:  gymName,
	}
}

// SendEmail sends a plain email to the given recipients
func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return &DependencyDegraded{
			Dependency: "notifier",
			Err:        fmt.Errorf("SMTP credentials not fully configured"),
		}
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return &DependencyDegraded{Dependency: "notifier", Err: err}
	}

	return nil
}

// SendWelcome sends the onboarding email with login credentials
func (s *EmailService) SendWelcome(email, name string, details WelcomeDetails) error {
	subject := fmt.Sprintf("Welcome to %s - Your Membership Details", s.gymName)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for joining %s! Your membership has been set up and your payment has been recorded.\n\n", s.gymName)
	if details.Password != "" {
		fmt.Fprintf(&b, "Your login credentials:\n  Email: %s\n  Password: %s\n\n", email, details.Password)
		b.WriteString("Please change your password after your first login.\n\n")
	}
	if details.PlanName != "" {
		fmt.Fprintf(&b, "Plan: %s\n", details.PlanName)
	}
	if details.StartDate != "" {
		fmt.Fprintf(&b, "Start date: %s\n", details.StartDate)
	}
	if details.EndDate != "" {
		fmt.Fprintf(&b, "End date: %s\n", details.EndDate)
	}
	if details.Amount > 0 {
		fmt.Fprintf(&b, "Amount paid: %.2f\n", details.Amount)
	}
	b.WriteString("\nWe look forward to seeing you at the gym!\n")

	return s.SendEmail([]string{email}, subject, b.String())
}

// SendReceipt sends a payment receipt
func (s *EmailService) SendReceipt(email, name string, details ReceiptDetails) error {
	subject := fmt.Sprintf("%s - Payment Receipt %s", s.gymName, details.ReceiptRef)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "We received your payment of %.2f (%s) on %s.\n", details.Amount, details.PaymentMethod, details.PaymentDate)
	if details.PlanName != "" {
		fmt.Fprintf(&b, "Plan: %s\n", details.PlanName)
	}
	fmt.Fprintf(&b, "Receipt reference: %s\n", details.ReceiptRef)
	if details.RemainingBalance > 0 {
		fmt.Fprintf(&b, "Remaining balance: %.2f\n", details.RemainingBalance)
	} else {
		b.WriteString("Your balance is fully settled.\n")
	}

	return s.SendEmail([]string{email}, subject, b.String())
}
