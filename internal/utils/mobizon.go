package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const mobizonURL = "https://api.mobizon.kz/service/message/sendsmsmessage"

type Client struct {
	ApiKey string
	Sender string // optional sender id
	DryRun bool
	URL    string
	HTTP   *http.Client
}

type SendSMSResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewClientWithOptions(apiKey, sender string, dryRun bool) *Client {
	return &Client{
		ApiKey: apiKey,
		Sender: sender,
		DryRun: dryRun,
		URL:    mobizonURL,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS sends text through Mobizon, or only logs it in dry-run mode.
func (c *Client) SendSMS(to, text string) (*SendSMSResponse, error) {
	if c.DryRun || c.ApiKey == "" || c.ApiKey == "dry-run" {
		log.Printf("[mobizon][dry-run] to=%s sender=%q len=%d", to, c.Sender, len(text))
		return &SendSMSResponse{Code: 0}, nil
	}

	form := url.Values{
		"apiKey":    {c.ApiKey},
		"recipient": {to},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	resp, err := c.HTTP.PostForm(c.URL, form)
	if err != nil {
		return nil, fmt.Errorf("send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result SendSMSResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("mobizon returned error code: %d", result.Code)
	}
	log.Printf("[mobizon][send] to=%s messageID=%s", to, result.Data.MessageID)
	return &result, nil
}
