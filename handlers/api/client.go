// handlers/api/client.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mailpane/models"
	"mailpane/utils"

	"github.com/valyala/fasthttp"
)

// ErrUnknownMailbox is returned for mailbox names outside inbox, sent and archive.
// No request is made and nothing is logged.
var ErrUnknownMailbox = errors.New("unknown mailbox")

// Client talks to the mail backend's REST API. Every method reports its
// outcome as a models.Result; none of them returns a bare error.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	log     *utils.Logger
}

// NewClient creates a backend client. baseURL is the service root, e.g.
// http://127.0.0.1:8000.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "mailpane",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		log: utils.Log.WithField("component", "mail-client"),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type createdBody struct {
	Message string `json:"message"`
}

// ListEmails returns the emails of a mailbox in backend order (newest first
// by convention).
func (c *Client) ListEmails(ctx context.Context, mailbox string) models.Result[[]models.Email] {
	mb, ok := models.ParseMailbox(mailbox)
	if !ok {
		return models.Fail[[]models.Email](ErrUnknownMailbox)
	}

	status, body, err := c.do(ctx, fasthttp.MethodGet, "/emails/"+string(mb), nil)
	if err != nil {
		return models.Fail[[]models.Email](c.failure("list", err, "mailbox", mb))
	}
	if status < 200 || status >= 300 {
		return models.Fail[[]models.Email](c.rejected("list", status, body, "mailbox", mb))
	}

	var emails []models.Email
	if err := json.Unmarshal(body, &emails); err != nil {
		return models.Fail[[]models.Email](c.failure("list", fmt.Errorf("decoding emails: %w", err), "mailbox", mb))
	}
	if emails == nil {
		emails = []models.Email{}
	}
	return models.Ok(emails)
}

// GetEmail fetches a single email
func (c *Client) GetEmail(ctx context.Context, id int) models.Result[models.Email] {
	status, body, err := c.do(ctx, fasthttp.MethodGet, "/emails/"+strconv.Itoa(id), nil)
	if err != nil {
		return models.Fail[models.Email](c.failure("get", err, "id", id))
	}
	if status < 200 || status >= 300 {
		return models.Fail[models.Email](c.rejected("get", status, body, "id", id))
	}

	var email models.Email
	if err := json.Unmarshal(body, &email); err != nil {
		return models.Fail[models.Email](c.failure("get", fmt.Errorf("decoding email: %w", err), "id", id))
	}
	return models.Ok(email)
}

// CreateEmail sends a new email. The recipient list is normalized first.
// Only a 201 response counts as success; its value is the backend's
// confirmation message.
func (c *Client) CreateEmail(ctx context.Context, recipients, subject, body string) models.Result[string] {
	payload := models.NewEmail{
		Recipients: models.NormalizeRecipients(recipients),
		Subject:    subject,
		Body:       body,
	}

	status, respBody, err := c.do(ctx, fasthttp.MethodPost, "/emails", payload)
	if err != nil {
		return models.Fail[string](c.failure("create", err, "recipients", payload.Recipients))
	}
	if status != fasthttp.StatusCreated {
		return models.Fail[string](c.rejected("create", status, respBody, "recipients", payload.Recipients))
	}

	var created createdBody
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &created); err != nil {
			c.log.Debug("create: ignoring unreadable confirmation body: %v", err)
		}
	}
	return models.Ok(created.Message)
}

// SetEmailFlags applies a partial flag update. Only a 204 response counts
// as success.
func (c *Client) SetEmailFlags(ctx context.Context, id int, patch models.FlagPatch) models.Done {
	status, body, err := c.do(ctx, fasthttp.MethodPut, "/emails/"+strconv.Itoa(id), patch)
	if err != nil {
		return models.Fail[struct{}](c.failure("update", err, "id", id))
	}
	if status != fasthttp.StatusNoContent {
		return models.Fail[struct{}](c.rejected("update", status, body, "id", id))
	}
	return models.Ok(struct{}{})
}

// do performs one request. The returned body is a copy and outlives the
// pooled response.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

// failure logs and wraps a transport or decoding error
func (c *Client) failure(op string, err error, key string, value interface{}) *utils.AppError {
	c.log.WithFields(map[string]interface{}{"op": op, key: value}).Error("backend request failed: %v", err)
	return utils.BadGatewayError("mail backend unavailable", err).WithContext(key, value)
}

// rejected logs and wraps a response with an unexpected status. The body's
// "error" field becomes the message when present.
func (c *Client) rejected(op string, status int, body []byte, key string, value interface{}) *utils.AppError {
	message := fmt.Sprintf("unexpected status %d", status)
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		message = eb.Error
	}

	c.log.WithFields(map[string]interface{}{"op": op, "status": status, key: value}).Error("backend rejected request: %s", message)
	return utils.NewAppError(status, message, nil).WithContext(key, value)
}
