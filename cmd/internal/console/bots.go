package console

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	BotOnline  = "online"
	BotOffline = "offline"
	BotUnknown = "unknown"
)

// Bot is a chat bot managed through the console.
type Bot struct {
	Name      string
	Slug      string
	HealthURL string
}

// ParseBots reads entries of the form "Name=https://health.url".
// The health URL is optional; without it the bot status is unknown.
func ParseBots(entries []string) ([]Bot, error) {
	out := make([]Bot, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		name, health, _ := strings.Cut(e, "=")
		name, health = strings.TrimSpace(name), strings.TrimSpace(health)
		if name == "" {
			return nil, fmt.Errorf("bot entry %q: empty name", e)
		}
		if health != "" {
			u, err := url.Parse(health)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return nil, fmt.Errorf("bot %s: invalid health url %q", name, health)
			}
		}
		out = append(out, Bot{Name: name, Slug: slugify(name), HealthURL: health})
	}
	return out, nil
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type quickLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type botCard struct {
	Name       string      `json:"name"`
	Link       string      `json:"link"`
	Status     string      `json:"status"`
	QuickLinks []quickLink `json:"quickLinks"`
}

func (h *Handler) handleBots(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cards := make([]botCard, len(h.bots))
	var g errgroup.Group
	for i, b := range h.bots {
		link := "/bots/" + b.Slug
		cards[i] = botCard{
			Name: b.Name,
			Link: link,
			QuickLinks: []quickLink{
				{Label: "Settings", Href: link + "/settings"},
				{Label: "Commands", Href: link + "/commands"},
				{Label: "Analytics", Href: link + "/analytics"},
			},
		}
		g.Go(func() error {
			cards[i].Status = h.probe(ctx, b)
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"bots": cards})
}

// probe reports a bot online when its health URL answers 2xx.
func (h *Handler) probe(ctx context.Context, b Bot) string {
	if b.HealthURL == "" {
		return BotUnknown
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.HealthURL, nil)
	if err != nil {
		return BotOffline
	}
	resp, err := h.botProbe.Do(req)
	if err != nil {
		h.log.Debug("console.bot.probe.fail", "bot", b.Name, "err", err)
		return BotOffline
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return BotOffline
	}
	return BotOnline
}
