// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers operator notifications. Delivery is best
// effort: the pipeline never fails because a message did not arrive.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// webhookAPIBase is the DingTalk robot endpoint. Declared as a var so
// tests can substitute an httptest server.
var webhookAPIBase = "https://oapi.dingtalk.com/robot/send?access_token="

// Notifier delivers one message to an operator channel.
type Notifier interface {
	Send(msg string) error
}

// Webhook posts text messages to a DingTalk group robot.
type Webhook struct {
	client *http.Client
	token  string
	out    io.Writer
}

// NewWebhook builds a notifier for the given robot token. The endpoint's
// response body is echoed to out for the operator log; pass nil to
// discard it.
func NewWebhook(token string, out io.Writer) *Webhook {
	if out == nil {
		out = io.Discard
	}
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		token:  token,
		out:    out,
	}
}

type textMessage struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

// Send posts msg as a text message. The response body is logged, not
// interpreted; the endpoint reports rejections inside an HTTP 200.
func (w *Webhook) Send(msg string) error {
	var body textMessage
	body.MsgType = "text"
	body.Text.Content = msg

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	resp, err := w.client.Post(
		webhookAPIBase+w.token,
		"application/json;charset=utf-8",
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(w.out, resp.Body)
	fmt.Fprintln(w.out)
	return nil
}

// Nop discards every message. Used when no token is configured and in
// tests.
type Nop struct{}

func (Nop) Send(string) error { return nil }

// FromToken returns a webhook notifier when token is set, Nop otherwise.
func FromToken(token string, out io.Writer) Notifier {
	if token == "" {
		return Nop{}
	}
	return NewWebhook(token, out)
}
