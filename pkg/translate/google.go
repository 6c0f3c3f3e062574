package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultGoogleEndpoint is the public gtx endpoint.
const DefaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// maxResponseSize bounds how much of a translation response is read.
const maxResponseSize = 1 << 20

// Google queries the translate_a/single endpoint.
type Google struct {
	Endpoint string
	Source   string
	Target   string
	HTTP     *http.Client
}

// NewGoogle creates a provider for English to Simplified Chinese.
func NewGoogle(endpoint string, timeout time.Duration) *Google {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	return &Google{
		Endpoint: endpoint,
		Source:   "en",
		Target:   "zh-CN",
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Translate performs one GET. The response is a nested array: the first
// translation segment is at [0][0][0] and the first part-of-speech group,
// when present, at [1][0][0].
func (g *Google) Translate(ctx context.Context, word string) (Result, error) {
	u, err := url.Parse(g.Endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("parse endpoint: %w", err)
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", g.Source)
	q.Set("tl", g.Target)
	q.Add("dt", "t")
	q.Add("dt", "bd")
	q.Set("q", word)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", "wordlens")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("translate returned status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	return parseGoogle(body)
}

func parseGoogle(body []byte) (Result, error) {
	var doc []interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	var res Result
	if s, ok := at(doc, 0, 0, 0).(string); ok {
		res.Translation = s
	}
	if s, ok := at(doc, 1, 0, 0).(string); ok {
		res.PartOfSpeech = s
	}
	return res, nil
}

// at walks nested arrays positionally, returning nil as soon as a level is
// missing or not an array.
func at(v interface{}, path ...int) interface{} {
	for _, i := range path {
		arr, ok := v.([]interface{})
		if !ok || i >= len(arr) {
			return nil
		}
		v = arr[i]
	}
	return v
}
