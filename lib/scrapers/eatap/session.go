package eatap

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
)

// cookieDescriptor matches the JSON shape produced by the browser
// extensions people use to export their portal session.
type cookieDescriptor struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
}

// loadSessionCookies reads the persisted cookie file. A missing file or
// a malformed one is not fatal, the client comes up with an empty
// session so that health checks still work before anyone has uploaded
// cookies. Malformed entries are skipped individually.
func loadSessionCookies(ctx context.Context, path, defaultDomain string) []*http.Cookie {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.WarnContext(ctx, "cookie file not found", "path", path)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read cookie file", "path", path, "err", err)
		return nil
	}

	var rawEntries []json.RawMessage
	err = json.Unmarshal(contents, &rawEntries)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse cookie file", "path", path, "err", err)
		return nil
	}

	var cookies []*http.Cookie
	for i, raw := range rawEntries {
		var desc cookieDescriptor
		err := json.Unmarshal(raw, &desc)
		if err != nil || desc.Name == "" {
			slog.WarnContext(ctx, "skipping malformed cookie entry", "path", path, "index", i)
			continue
		}
		domain := desc.Domain
		if domain == "" {
			domain = defaultDomain
		}
		cookies = append(cookies, &http.Cookie{
			Name:   desc.Name,
			Value:  desc.Value,
			Domain: domain,
		})
	}

	slog.InfoContext(ctx, "initialized eatap session from cookies", "path", path, "count", len(cookies))
	return cookies
}
