// Package botapi implements the messaging transport against a
// Telegram-style bot HTTP API: long-polled updates in, JSON sendMessage
// calls out.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
	"ledgerbot/internal/transport"
)

type Client struct {
	baseURL     string
	token       string
	pollTimeout time.Duration
	http        *http.Client
	log         *log.Logger
}

func New(baseURL, token string, pollTimeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		pollTimeout: pollTimeout,
		// The poll request itself blocks up to pollTimeout server-side.
		http: &http.Client{Timeout: pollTimeout + 10*time.Second},
		log:  logger.WithComponent(log.ComponentTransport),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type apiUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int   `json:"message_id"`
		Chat      chat  `json:"chat"`
		Text      string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			MessageID int  `json:"message_id"`
			Chat      chat `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

type chat struct {
	ID int64 `json:"id"`
}

func (c *Client) Send(ctx context.Context, id core.UserID, text string, markup *transport.Markup) (int, error) {
	payload := map[string]any{
		"chat_id": int64(id),
		"text":    text,
	}
	applyMarkup(payload, text, markup)

	var result struct {
		MessageID int `json:"message_id"`
	}
	if err := c.call(ctx, "sendMessage", payload, &result); err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return result.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, id core.UserID, messageID int, text string, markup *transport.Markup) error {
	payload := map[string]any{
		"chat_id":    int64(id),
		"message_id": messageID,
		"text":       text,
	}
	applyMarkup(payload, text, markup)

	if err := c.call(ctx, "editMessageText", payload, nil); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// Poll long-polls for updates and hands each one to handle, which runs
// on its own goroutine so one slow conversation cannot stall another
// user's. It returns when the context is cancelled.
func (c *Client) Poll(ctx context.Context, handle func(context.Context, transport.Update)) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WarnContext(ctx, "Polling updates failed", log.FieldError, err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, raw := range updates {
			if raw.UpdateID >= offset {
				offset = raw.UpdateID + 1
			}
			upd, ok := c.convert(ctx, raw)
			if !ok {
				continue
			}
			go handle(ctx, upd)
		}
	}
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]apiUpdate, error) {
	payload := map[string]any{
		"offset":  offset,
		"timeout": int(c.pollTimeout.Seconds()),
	}
	var updates []apiUpdate
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) convert(ctx context.Context, raw apiUpdate) (transport.Update, bool) {
	switch {
	case raw.CallbackQuery != nil && raw.CallbackQuery.Message != nil:
		// Acknowledge the button press so the client stops spinning.
		_ = c.call(ctx, "answerCallbackQuery", map[string]any{
			"callback_query_id": raw.CallbackQuery.ID,
		}, nil)
		return transport.Update{
			UserID: core.UserID(raw.CallbackQuery.Message.Chat.ID),
			Callback: &transport.Callback{
				ID:        raw.CallbackQuery.ID,
				MessageID: raw.CallbackQuery.Message.MessageID,
				Data:      raw.CallbackQuery.Data,
			},
		}, true
	case raw.Message != nil && raw.Message.Text != "":
		return transport.Update{
			UserID: core.UserID(raw.Message.Chat.ID),
			Text:   raw.Message.Text,
		}, true
	default:
		return transport.Update{}, false
	}
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("%s: api error: %s", method, api.Description)
	}
	if out != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func applyMarkup(payload map[string]any, text string, markup *transport.Markup) {
	if markup == nil {
		return
	}
	if markup.Monospace {
		payload["text"] = "<pre>" + html.EscapeString(text) + "</pre>"
		payload["parse_mode"] = "HTML"
	}
	switch {
	case len(markup.Reply) > 0:
		rows := make([][]map[string]string, 0, len(markup.Reply))
		for _, row := range markup.Reply {
			buttons := make([]map[string]string, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, map[string]string{"text": label})
			}
			rows = append(rows, buttons)
		}
		payload["reply_markup"] = map[string]any{
			"keyboard":          rows,
			"one_time_keyboard": true,
			"resize_keyboard":   true,
		}
	case len(markup.Inline) > 0:
		rows := make([][]map[string]string, 0, len(markup.Inline))
		for _, row := range markup.Inline {
			buttons := make([]map[string]string, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, map[string]string{"text": b.Text, "callback_data": b.Data})
			}
			rows = append(rows, buttons)
		}
		payload["reply_markup"] = map[string]any{"inline_keyboard": rows}
	case markup.RemoveReply:
		payload["reply_markup"] = map[string]any{"remove_keyboard": true}
	}
}
