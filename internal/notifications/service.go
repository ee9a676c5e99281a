package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service forwards alerts to the configured channels
type Service struct {
	config   *config.Config
	client   *resty.Client
	sendMail func(m *gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityImage string      `json:"activityImage,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.sendMail = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return d.DialAndSend(m)
	}
	return s
}

// SendAlert delivers the alert on every configured channel. Alerts below the
// configured minimum severity are dropped.
func (s *Service) SendAlert(alert *models.Alert) error {
	if alert.Severity.Rank() < s.config.NotifyMinSeverity.Rank() {
		logrus.Debugf("Skipping %s alert %s below notification threshold", alert.Severity, alert.ID)
		return nil
	}

	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(alert); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent alert %s to Teams", alert.ID)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent alert %s via email", alert.ID)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(alert *models.Alert) error {
	message := buildTeamsMessage(alert)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildTeamsMessage(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: severityColor(alert.Severity),
		Title:      fmt.Sprintf("Farm alert: %s", alertTitle(alert.Kind)),
		Text:       alert.Message,
	}

	facts := []TeamsFact{
		{Name: "Severity", Value: string(alert.Severity)},
		{Name: "Time", Value: alert.Timestamp.String()},
	}

	section := TeamsSection{ActivityTitle: "Details", Markdown: true}
	if d := alert.RelatedDetection; d != nil {
		facts = append(facts,
			TeamsFact{Name: "Location", Value: d.Location},
			TeamsFact{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", d.Confidence*100)},
			TeamsFact{Name: "Detection", Value: d.ID},
		)
		section.ActivityImage = d.ImageThumbnail
	}
	section.Facts = facts

	message.Sections = append(message.Sections, section)
	return message
}

func (s *Service) sendEmail(alert *models.Alert) error {
	subject := fmt.Sprintf("[%s] Farm alert: %s", strings.ToUpper(string(alert.Severity)), alertTitle(alert.Kind))

	htmlBody, err := buildEmailHTML(alert)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(alert))
	m.AddAlternative("text/html", htmlBody)

	if err := s.sendMail(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("alert").Funcs(template.FuncMap{
	"percent": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v*100)
	},
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Farm alert</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .alert { border-left: 4px solid #605e5c; padding: 10px; background-color: #fafafa; }
        .high { border-left-color: #d13438; }
        .medium { border-left-color: #ffaa44; }
        .meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="alert {{.Alert.Severity}}">
        <h2>{{.Title}}</h2>
        <p>{{.Alert.Message}}</p>
        <p class="meta">Severity: {{.Alert.Severity}} | {{.Alert.Timestamp}}</p>
        {{with .Alert.RelatedDetection}}
        <p class="meta">Detection {{.ID}} at {{.Location}} ({{percent .Confidence}} confidence)</p>
        <img src="{{.ImageThumbnail}}" alt="detection thumbnail" width="320">
        {{end}}
    </div>
</body>
</html>
`))

func buildEmailHTML(alert *models.Alert) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Title string
		Alert *models.Alert
	}{
		Title: alertTitle(alert.Kind),
		Alert: alert,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Farm alert - %s\n", alertTitle(alert.Kind)))
	text.WriteString(fmt.Sprintf("Time: %s\n", alert.Timestamp))
	text.WriteString(fmt.Sprintf("Severity: %s\n\n", alert.Severity))
	text.WriteString(alert.Message + "\n")

	if d := alert.RelatedDetection; d != nil {
		text.WriteString(fmt.Sprintf("\nDetection %s at %s, confidence %.0f%%\n", d.ID, d.Location, d.Confidence*100))
		text.WriteString(fmt.Sprintf("Image: %s\n", d.ImageThumbnail))
	}

	return text.String()
}

func alertTitle(kind models.AlertKind) string {
	switch kind {
	case models.AlertIntrusion:
		return "Intrusion"
	case models.AlertAnimalEscape:
		return "Animal escape"
	case models.AlertSystem:
		return "System"
	}
	return string(kind)
}

func severityColor(severity models.Severity) string {
	switch severity {
	case models.SeverityHigh:
		return "d13438"
	case models.SeverityMedium:
		return "ffaa44"
	}
	return "605e5c"
}
