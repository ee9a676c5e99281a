package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func intrusion() *models.Alert {
	authorized := false
	detection := models.Detection{
		ID:             "h-new-1",
		Kind:           models.KindHuman,
		Confidence:     0.87,
		Timestamp:      models.NewTimestamp(time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)),
		Location:       "North Pasture",
		ImageThumbnail: "https://example.invalid/h.jpeg",
		Authorized:     &authorized,
	}
	return &models.Alert{
		ID:               "intrusion-1",
		Kind:             models.AlertIntrusion,
		Message:          "Unauthorized person detected in North Pasture",
		Severity:         models.SeverityHigh,
		Timestamp:        detection.Timestamp,
		RelatedDetection: &detection,
	}
}

func TestService_SendAlert_Teams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(&config.Config{
		TeamsWebhookURL:   server.URL,
		NotifyMinSeverity: models.SeverityHigh,
	})

	require.NoError(t, service.SendAlert(intrusion()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "Farm alert: Intrusion", received.Title)
	assert.Equal(t, "Unauthorized person detected in North Pasture", received.Text)
	require.Len(t, received.Sections, 1)
	assert.Contains(t, received.Sections[0].Facts, TeamsFact{Name: "Location", Value: "North Pasture"})
	assert.Contains(t, received.Sections[0].Facts, TeamsFact{Name: "Confidence", Value: "87%"})
}

func TestService_SendAlert_BelowThreshold(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	service := NewService(&config.Config{
		TeamsWebhookURL:   server.URL,
		NotifyMinSeverity: models.SeverityHigh,
	})

	alert := &models.Alert{ID: "system-2", Kind: models.AlertSystem, Severity: models.SeverityLow}
	require.NoError(t, service.SendAlert(alert))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestService_SendAlert_Email(t *testing.T) {
	service := NewService(&config.Config{
		NotificationEmail: "ops@example.com",
		SMTPUsername:      "bot@example.com",
		NotifyMinSeverity: models.SeverityLow,
	})

	var sent *gomail.Message
	service.sendMail = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	require.NoError(t, service.SendAlert(intrusion()))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"ops@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"[HIGH] Farm alert: Intrusion"}, sent.GetHeader("Subject"))
}

func TestService_SendAlert_AggregatesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := NewService(&config.Config{
		TeamsWebhookURL:   server.URL,
		NotificationEmail: "ops@example.com",
		NotifyMinSeverity: models.SeverityLow,
	})
	service.sendMail = func(m *gomail.Message) error {
		return errors.New("connection refused")
	}

	err := service.SendAlert(intrusion())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams: Teams webhook returned status 502")
	assert.Contains(t, err.Error(), "Email: failed to send email: connection refused")
}

func TestBuildEmailBodies(t *testing.T) {
	alert := intrusion()

	html, err := buildEmailHTML(alert)
	require.NoError(t, err)
	assert.Contains(t, html, `class="alert high"`)
	assert.Contains(t, html, "Unauthorized person detected in North Pasture")
	assert.Contains(t, html, "87% confidence")

	text := buildEmailText(alert)
	assert.Contains(t, text, "Time: 2024-05-10 08:00:00")
	assert.Contains(t, text, "Detection h-new-1 at North Pasture, confidence 87%")
}

func TestBuildTeamsMessage_SystemAlert(t *testing.T) {
	message := buildTeamsMessage(&models.Alert{
		ID:       "system-1",
		Kind:     models.AlertSystem,
		Message:  "Camera in Chicken Coop is offline",
		Severity: models.SeverityMedium,
	})

	assert.Equal(t, "Farm alert: System", message.Title)
	assert.Equal(t, "ffaa44", message.ThemeColor)
	require.Len(t, message.Sections, 1)
	assert.Len(t, message.Sections[0].Facts, 2)
	assert.Empty(t, message.Sections[0].ActivityImage)
}
