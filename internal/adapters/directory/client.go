// Package directory is the HTTP client for the meeting directory
// service. Every call is one attempt; convergence is the event
// stream's job, not this client's.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode: %v", core.ErrDirectory, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrDirectory, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrDirectory, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return core.ErrMeetingNotFound
	case resp.StatusCode == http.StatusConflict:
		return core.ErrMeetingFull
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Warn().Str("module", "directory").Str("path", path).Int("status", resp.StatusCode).Msg("request failed")
		return fmt.Errorf("%w: status %d: %s", core.ErrDirectory, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", core.ErrDirectory, err)
	}
	return nil
}

type createRequest struct {
	Title    string          `json:"title"`
	Host     domain.UserID   `json:"host_id"`
	HostName string          `json:"host_name"`
	Settings domain.Settings `json:"settings"`
}

type grantResponse struct {
	Meeting    domain.Meeting `json:"meeting"`
	Credential string         `json:"credential"`
	Pending    bool           `json:"pending"`
}

func (c *Client) CreateMeeting(ctx context.Context, title string, host domain.UserID, hostName string, settings domain.Settings) (core.CreateResult, error) {
	var resp grantResponse
	err := c.do(ctx, http.MethodPost, "/meetings", createRequest{Title: title, Host: host, HostName: hostName, Settings: settings}, &resp)
	if err != nil {
		return core.CreateResult{}, err
	}
	return core.CreateResult{Meeting: resp.Meeting, Credential: core.Credential(resp.Credential)}, nil
}

type joinRequest struct {
	User domain.UserID `json:"user_id"`
	Name string        `json:"name,omitempty"`
}

func (c *Client) JoinMeeting(ctx context.Context, id domain.MeetingID, user domain.UserID, name string) (core.JoinResult, error) {
	var resp grantResponse
	err := c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/join", joinRequest{User: user, Name: name}, &resp)
	if err != nil {
		return core.JoinResult{}, err
	}
	return core.JoinResult{Meeting: resp.Meeting, Credential: core.Credential(resp.Credential), Pending: resp.Pending}, nil
}

func (c *Client) RejoinMeeting(ctx context.Context, id domain.MeetingID, user domain.UserID) (core.JoinResult, error) {
	var resp grantResponse
	err := c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/rejoin", joinRequest{User: user}, &resp)
	if err != nil {
		return core.JoinResult{}, err
	}
	return core.JoinResult{Meeting: resp.Meeting, Credential: core.Credential(resp.Credential), Pending: resp.Pending}, nil
}

func (c *Client) FetchMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	var m domain.Meeting
	err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(string(id)), nil, &m)
	return m, err
}

type userRef struct {
	User domain.UserID `json:"user_id"`
}

func (c *Client) Admit(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/admit", userRef{User: user}, nil)
}

func (c *Client) DeclineJoin(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/decline", userRef{User: user}, nil)
}

func (c *Client) Mute(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/mute", userRef{User: user}, nil)
}

func (c *Client) Kick(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/kick", userRef{User: user}, nil)
}

func (c *Client) SendChat(ctx context.Context, id domain.MeetingID, msg domain.ChatMessage) (domain.ChatMessage, error) {
	var out domain.ChatMessage
	err := c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/chat", msg, &out)
	return out, err
}

func (c *Client) CreatePoll(ctx context.Context, id domain.MeetingID, poll domain.Poll) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/polls", poll, nil)
}

type voteRequest struct {
	Poll   string        `json:"poll_id"`
	User   domain.UserID `json:"user_id"`
	Option int           `json:"option"`
}

func (c *Client) Vote(ctx context.Context, id domain.MeetingID, poll string, user domain.UserID, option int) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/votes", voteRequest{Poll: poll, User: user, Option: option}, nil)
}

type reactionRequest struct {
	User  domain.UserID `json:"user_id"`
	Emoji string        `json:"emoji"`
}

func (c *Client) SendReaction(ctx context.Context, id domain.MeetingID, user domain.UserID, emoji string) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/reactions", reactionRequest{User: user, Emoji: emoji}, nil)
}

type handRequest struct {
	User   domain.UserID `json:"user_id"`
	Raised bool          `json:"raised"`
}

func (c *Client) SetHand(ctx context.Context, id domain.MeetingID, user domain.UserID, raised bool) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/hand", handRequest{User: user, Raised: raised}, nil)
}

func (c *Client) RequestStage(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/stage/requests", userRef{User: user}, nil)
}

type stageDecision struct {
	User   domain.UserID `json:"user_id"`
	Accept bool          `json:"accept"`
}

func (c *Client) ResolveStage(ctx context.Context, id domain.MeetingID, user domain.UserID, accept bool) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/stage/decisions", stageDecision{User: user, Accept: accept}, nil)
}

type roleRequest struct {
	User domain.UserID `json:"user_id"`
	Role domain.Role   `json:"role"`
}

func (c *Client) SetRole(ctx context.Context, id domain.MeetingID, user domain.UserID, role domain.Role) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/roles", roleRequest{User: user, Role: role}, nil)
}

func (c *Client) Leave(ctx context.Context, id domain.MeetingID, user domain.UserID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/leave", userRef{User: user}, nil)
}

func (c *Client) End(ctx context.Context, id domain.MeetingID) error {
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(string(id))+"/end", nil, nil)
}

func (c *Client) History(ctx context.Context, user domain.UserID) ([]core.HistoryEntry, error) {
	var out []core.HistoryEntry
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(string(user))+"/history", nil, &out)
	return out, err
}

func (c *Client) DeleteHistoryEntry(ctx context.Context, user domain.UserID, entryID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(string(user))+"/history/"+url.PathEscape(entryID), nil, nil)
}
