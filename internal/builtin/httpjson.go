package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mattjoyce/mosaic/internal/widget"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// HTTPJSON fetches a JSON document and renders selected values as
// label/value lines. Paths use gjson syntax ("current.temp_c",
// "items.0.name"); without fields the whole document renders prettified.
// Fetching rides DataWidget, so responses are cached for the configured
// window and served stale when a refresh fails.
type HTTPJSON struct {
	widget.DataWidget

	url    string
	fields []jsonField
	client *http.Client
}

type jsonField struct {
	label string
	path  string
}

// NewHTTPJSON builds the widget. Options: url (required), fields (object
// of label -> gjson path), timeout, cache_window (duration strings),
// retries (int).
func NewHTTPJSON(wctx widget.Context) (any, error) {
	url := optString(wctx.Options, "url", "")
	if url == "" {
		return nil, fmt.Errorf("httpjson widget %q needs a url option", wctx.Name)
	}

	var fields []jsonField
	if raw, ok := wctx.Options["fields"].(map[string]any); ok {
		for label, v := range raw {
			if path, ok := v.(string); ok {
				fields = append(fields, jsonField{label: label, path: path})
			}
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].label < fields[j].label })

	timeout := 10 * time.Second
	if s := optString(wctx.Options, "timeout", ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		timeout = d
	}

	h := &HTTPJSON{
		url:    url,
		fields: fields,
		client: &http.Client{Timeout: timeout},
	}
	h.Ctx = wctx
	h.Retries = optInt(wctx.Options, "retries", 0)
	if s := optString(wctx.Options, "cache_window", ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid cache_window %q: %w", s, err)
		}
		h.CacheWindow = d
	}
	h.FetchFunc = h.fetch

	return h, nil
}

func (h *HTTPJSON) fetch(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", h.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("GET %s: response is not valid JSON", h.url)
	}

	return string(body), nil
}

func (h *HTTPJSON) Render(ctx context.Context) (string, error) {
	data, err := h.Data(ctx)
	if err != nil {
		return "", err
	}
	body, _ := data.(string)

	if len(h.fields) == 0 {
		return strings.TrimSpace(gjson.Get(body, "@pretty").String()), nil
	}

	var b strings.Builder
	for _, f := range h.fields {
		result := gjson.Get(body, f.path)
		value := result.String()
		if !result.Exists() {
			value = "n/a"
		}
		fmt.Fprintf(&b, "%s: %s\n", f.label, value)
	}
	if h.Stale() {
		b.WriteString("(stale)\n")
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
