// Package languagetool is a client for the LanguageTool HTTP API.
package languagetool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/language"

	"github.com/zombar/wordwise/internal/models"
)

const (
	// DefaultURL is the address of a locally running LanguageTool server
	DefaultURL = "http://localhost:8010"
	// DefaultLanguage is used when no language is configured
	DefaultLanguage = "en-US"
	// DefaultTimeout bounds a single check
	DefaultTimeout = 20 * time.Second
)

// Client checks text against a LanguageTool server. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	baseURL  string
	language string
	client   *http.Client
}

// New creates a client and verifies the server answers. lang is a BCP 47 tag
// such as "en-US", or "auto".
func New(ctx context.Context, baseURL, lang string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid LanguageTool URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid LanguageTool URL %q", baseURL)
	}

	code, err := normalizeLanguage(lang)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		language: code,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func normalizeLanguage(lang string) (string, error) {
	if lang == "" {
		return DefaultLanguage, nil
	}
	if lang == "auto" {
		return lang, nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", lang, err)
	}
	return tag.String(), nil
}

// Language returns the language code sent with every check
func (c *Client) Language() string {
	return c.language
}

// Ping checks that the server is reachable
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/languages", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("LanguageTool unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("LanguageTool returned status %d", resp.StatusCode)
	}
	return nil
}

type checkResponse struct {
	Matches []struct {
		Message      string `json:"message"`
		Offset       int    `json:"offset"`
		Length       int    `json:"length"`
		Replacements []struct {
			Value string `json:"value"`
		} `json:"replacements"`
		Rule struct {
			ID       string `json:"id"`
			Category struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"category"`
		} `json:"rule"`
	} `json:"matches"`
}

// Check returns the rule matches for text in server order. Offsets are
// converted from the UTF-16 units LanguageTool reports to runes.
func (c *Client) Check(ctx context.Context, text string) ([]models.GrammarMatch, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grammar check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("LanguageTool returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode LanguageTool response: %w", err)
	}

	units := utf16Prefix(text)
	matches := make([]models.GrammarMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		start := runeIndex(units, m.Offset)
		end := runeIndex(units, m.Offset+m.Length)

		replacements := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			replacements = append(replacements, r.Value)
		}

		matches = append(matches, models.GrammarMatch{
			Offset:       start,
			Length:       end - start,
			Message:      m.Message,
			Replacements: replacements,
			Category:     m.Rule.Category.ID,
			RuleID:       m.Rule.ID,
		})
	}
	return matches, nil
}

// utf16Prefix returns the UTF-16 offset at which each rune of text starts,
// followed by the total length
func utf16Prefix(text string) []int {
	prefix := make([]int, 0, len(text)+1)
	units := 0
	for _, r := range text {
		prefix = append(prefix, units)
		if n := utf16.RuneLen(r); n > 0 {
			units += n
		} else {
			units++
		}
	}
	return append(prefix, units)
}

// runeIndex maps a UTF-16 offset to the index of the rune containing it
func runeIndex(prefix []int, unit int) int {
	i := sort.SearchInts(prefix, unit)
	if i < len(prefix) && prefix[i] == unit {
		return i
	}
	// offset points inside a surrogate pair
	return max(i-1, 0)
}
