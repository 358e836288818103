package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/match-scheduler/models"
)

// Announcement carries everything needed to format a scheduled-match
// message: the match itself, the schema (for announce flags), the
// tournament display name and the optional webhook identity overrides.
type Announcement struct {
	Match      models.Match
	Schema     []models.MatchField
	Tournament string
	Username   string
	AvatarURL  string

	// PingFor resolves a player name to a mention string.
	PingFor func(name string) string
}

type embedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type embed struct {
	Title  string       `json:"title"`
	Fields []embedField `json:"fields"`
}

type webhookPayload struct {
	Embeds    []embed `json:"embeds"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
}

// Webhook delivers announcements to a chat webhook URL. Delivery is a
// single POST with no retry; a non-2xx response is an error.
type Webhook struct {
	client *http.Client
}

func NewWebhook(client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{client: client}
}

func (w *Webhook) Publish(ctx context.Context, url string, ann Announcement) error {
	payload := webhookPayload{
		Embeds:    []embed{buildEmbed(ann)},
		Username:  ann.Username,
		AvatarURL: ann.AvatarURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrWebhookFailed, resp.StatusCode)
	}
	return nil
}

func buildEmbed(ann Announcement) embed {
	pings := make([]string, len(ann.Match.Players))
	for i, name := range ann.Match.Players {
		if ann.PingFor != nil {
			pings[i] = ann.PingFor(name)
		} else {
			pings[i] = name
		}
	}

	e := embed{
		Title: fmt.Sprintf("A %s match has been scheduled!", ann.Tournament),
		Fields: []embedField{
			{Name: "Players", Value: strings.Join(pings, "\n")},
		},
	}

	if ts, ok := matchTimestamp(ann.Match); ok {
		e.Fields = append(e.Fields, embedField{
			Name:  "Time",
			Value: fmt.Sprintf("<t:%d>\n<t:%d:R>", ts, ts),
		})
	}

	for _, field := range ann.Schema {
		if !field.AnnounceInDiscord {
			continue
		}
		value, ok := ann.Match.AdditionalData[field.Name]
		if !ok {
			continue
		}
		e.Fields = append(e.Fields, embedField{Name: field.Name, Value: value.Lines()})
	}

	return e
}

// matchTimestamp parses the match date into an epoch second for the
// <t:..> timestamp markup. Dates arrive either as RFC 3339 or as the
// zone-less datetime-local format the form controls produce.
func matchTimestamp(m models.Match) (int64, bool) {
	if m.Date == nil {
		return 0, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, *m.Date); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}
