package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"episode-pulse/catalog"

	log "github.com/sirupsen/logrus"
	gomail "gopkg.in/mail.v2"
)

// RatingChange is an episode whose rating moved between two snapshots.
// A nil Previous means the episode was unrated or absent before.
type RatingChange struct {
	Season   int
	Episode  int
	Previous *float64
	Current  *float64
}

// RatingsDigest describes one watched title after a watch run
type RatingsDigest struct {
	TitleID       string
	TitleName     string
	SeasonCount   int
	FailedSeasons []int
	Summaries     []catalog.SeasonSummary
	Changes       []RatingChange
}

// Notifier delivers watch run digests
type Notifier interface {
	NotifyRatingsUpdate(digests []RatingsDigest) error
}

// EmailNotifier handles sending email notifications
type EmailNotifier struct {
	smtpHost       string
	smtpPort       int
	username       string
	senderEmail    string
	senderPass     string
	recipientEmail string
	htmlTemplate   *template.Template
}

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	Username       string
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// Enabled reports whether enough is configured to send mail
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.RecipientEmail != ""
}

const digestTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Episode Pulse - Ratings Update</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #f5c518; }
        h2 { color: #0071c5; margin-top: 30px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .failed { color: #b00020; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
    </style>
</head>
<body>
    <h1>Episode Pulse - Ratings Update</h1>
    <p>Ratings collected on {{.Date}} for {{len .Digests}} title(s).</p>

    {{range .Digests}}
    <h2>{{.TitleName}} ({{.TitleID}})</h2>
    <p>{{.SeasonCount}} season(s) listed.</p>
    {{if .FailedSeasons}}<p class="failed">Seasons without data this run: {{seasons .FailedSeasons}}</p>{{end}}
    <table>
        <tr>
            <th>Season</th>
            <th>Episodes</th>
            <th>Rated</th>
            <th>Average</th>
        </tr>
        {{range .Summaries}}
        <tr>
            <td>{{.Season}}</td>
            <td>{{.Episodes}}</td>
            <td>{{.Rated}}</td>
            <td>{{rating .Average}}</td>
        </tr>
        {{end}}
    </table>
    {{if .Changes}}
    <table>
        <tr>
            <th>Episode</th>
            <th>Before</th>
            <th>Now</th>
        </tr>
        {{range .Changes}}
        <tr>
            <td>S{{.Season}}E{{.Episode}}</td>
            <td>{{rating .Previous}}</td>
            <td>{{rating .Current}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}
    {{end}}

    <div class="footer">
        <p>This is an automated email from Episode Pulse. Please do not reply.</p>
    </div>
</body>
</html>
`

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"rating":  formatRating,
		"seasons": formatSeasons,
	}).Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	username := config.Username
	if username == "" {
		username = "api"
	}

	return &EmailNotifier{
		smtpHost:       config.SMTPHost,
		smtpPort:       config.SMTPPort,
		username:       username,
		senderEmail:    config.SenderEmail,
		senderPass:     config.SenderPassword,
		recipientEmail: config.RecipientEmail,
		htmlTemplate:   tmpl,
	}, nil
}

// GetEmailConfigFromEnv loads email configuration from environment variables
func GetEmailConfigFromEnv() EmailConfig {
	smtpPort := 587
	if portStr := os.Getenv("EMAIL_SMTP_PORT"); portStr != "" {
		if p, err := fmt.Sscanf(portStr, "%d", &smtpPort); err != nil || p != 1 {
			log.Warnf("Invalid SMTP port '%s', using default 587", portStr)
			smtpPort = 587
		}
	}

	config := EmailConfig{
		SMTPHost:       os.Getenv("EMAIL_SMTP_HOST"),
		SMTPPort:       smtpPort,
		Username:       os.Getenv("EMAIL_USERNAME"),
		SenderEmail:    os.Getenv("EMAIL_SENDER"),
		SenderPassword: os.Getenv("EMAIL_PASSWORD"),
		RecipientEmail: os.Getenv("EMAIL_RECIPIENT"),
	}

	log.WithFields(log.Fields{
		"host":      config.SMTPHost,
		"port":      config.SMTPPort,
		"sender":    config.SenderEmail,
		"token":     maskSecret(config.SenderPassword),
		"recipient": config.RecipientEmail,
	}).Debug("Email configuration")

	return config
}

// NotifyRatingsUpdate sends one email covering every digest
func (n *EmailNotifier) NotifyRatingsUpdate(digests []RatingsDigest) error {
	if len(digests) == 0 {
		log.Debug("No digests to notify about")
		return nil
	}

	if n.recipientEmail == "" {
		log.Info("No recipient email configured, skipping notification")
		return nil
	}

	date := time.Now().Format("January 2, 2006 at 3:04 PM")
	html, err := n.renderDigests(date, digests)
	if err != nil {
		return err
	}

	changes := 0
	for _, d := range digests {
		changes += len(d.Changes)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Episode Pulse: %d Title(s), %d Rating Change(s)", len(digests), changes))
	m.SetBody("text/plain", plainDigest(date, digests))
	m.AddAlternative("text/html", html)

	if err := n.send(m); err != nil {
		return err
	}

	log.Infof("Email notification sent to %s with %d title(s)", n.recipientEmail, len(digests))
	return nil
}

// SendTest sends a short message to verify the SMTP settings
func (n *EmailNotifier) SendTest() error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", "Test Email from Episode Pulse")
	m.SetBody("text/html", "<h1>Test Email</h1><p>This is a test email from Episode Pulse to verify the SMTP configuration.</p>")

	log.Debugf("Creating dialer with: Host=%s, Port=%d, Username=%s", n.smtpHost, n.smtpPort, n.username)
	if err := n.send(m); err != nil {
		return err
	}
	log.Infof("Test email sent to %s", n.recipientEmail)
	return nil
}

func (n *EmailNotifier) send(m *gomail.Message) error {
	d := gomail.NewDialer(n.smtpHost, n.smtpPort, n.username, n.senderPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) renderDigests(date string, digests []RatingsDigest) (string, error) {
	data := struct {
		Date    string
		Digests []RatingsDigest
	}{
		Date:    date,
		Digests: digests,
	}

	var body bytes.Buffer
	if err := n.htmlTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return body.String(), nil
}

func plainDigest(date string, digests []RatingsDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Episode Pulse Ratings Update\n\nRatings collected on %s.\n\n", date)
	for _, d := range digests {
		fmt.Fprintf(&b, "%s (%s): %d season(s), %d rating change(s)\n", d.TitleName, d.TitleID, d.SeasonCount, len(d.Changes))
		if len(d.FailedSeasons) > 0 {
			fmt.Fprintf(&b, "  seasons without data: %s\n", formatSeasons(d.FailedSeasons))
		}
	}
	b.WriteString("\nThis is an automated email from Episode Pulse. Please do not reply.")
	return b.String()
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}

func formatSeasons(seasons []int) string {
	parts := make([]string, len(seasons))
	for i, s := range seasons {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ", ")
}

func maskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) > 8:
		return secret[:4] + "..." + secret[len(secret)-4:]
	default:
		return "***"
	}
}
