// Package clubchat provides a polling client for the club chat API.
package clubchat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Identity headers understood by the server's gateway boundary.
const (
	headerUser = "X-Club-User"
	headerName = "X-Club-Name"
	headerRole = "X-Club-Role"
)

// Client is a club chat API client. It remembers the caller identity
// and the per-feed since watermarks, so repeated polls only return new
// messages.
type Client struct {
	BaseURL    string
	UserID     string
	UserName   string
	Role       string
	HTTPClient *http.Client

	// since watermarks per room id and per peer id
	roomSince map[string]int64
	dmSince   map[string]int64
}

// NewClient creates a new client for the given identity.
func NewClient(baseURL, userID, userName, role string) *Client {
	return &Client{
		BaseURL:    baseURL,
		UserID:     userID,
		UserName:   userName,
		Role:       role,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		roomSince:  make(map[string]int64),
		dmSince:    make(map[string]int64),
	}
}

// doRequest performs an HTTP request with the identity headers set.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerUser, c.UserID)
	req.Header.Set(headerName, c.UserName)
	req.Header.Set(headerRole, c.Role)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("chat error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Room represents a room in the directory.
type Room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Restricted bool   `json:"restricted"`
}

// RoomsResponse is the response from listing rooms.
type RoomsResponse struct {
	Rooms []Room `json:"rooms"`
}

// Rooms lists the rooms visible to the caller's role.
func (c *Client) Rooms() (*RoomsResponse, error) {
	respBody, err := c.doRequest("GET", "/rooms", nil)
	if err != nil {
		return nil, err
	}

	var resp RoomsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Message represents a room message.
type Message struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
	Timestamp  int64  `json:"ts"`
}

// MessagesResponse is the response from polling a room.
type MessagesResponse struct {
	Room     Room      `json:"room"`
	Messages []Message `json:"messages"`
}

// Messages polls a room for messages newer than the client's watermark
// and advances the watermark past everything returned.
func (c *Client) Messages(roomID string) (*MessagesResponse, error) {
	path := fmt.Sprintf("/rooms/%s/messages?since=%d", roomID, c.roomSince[roomID])
	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	for _, msg := range resp.Messages {
		if msg.Timestamp > c.roomSince[roomID] {
			c.roomSince[roomID] = msg.Timestamp
		}
	}
	return &resp, nil
}

// Post posts a message to a room and returns the created message.
func (c *Client) Post(roomID, body string) (*Message, error) {
	reqBody, _ := json.Marshal(map[string]string{"body": body})
	respBody, err := c.doRequest("POST", fmt.Sprintf("/rooms/%s/messages", roomID), reqBody)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DirectMessage represents a direct message.
type DirectMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	FromName  string `json:"from_name"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"`
	Read      bool   `json:"read"`
}

// ConversationResponse is the response from polling a conversation.
type ConversationResponse struct {
	Peer     string          `json:"peer"`
	Messages []DirectMessage `json:"messages"`
}

// Conversation polls the conversation with a peer. The server marks
// the peer's messages to the caller as read as part of the fetch.
func (c *Client) Conversation(peerID string) (*ConversationResponse, error) {
	path := fmt.Sprintf("/dm/%s?since=%d", peerID, c.dmSince[peerID])
	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp ConversationResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	for _, dm := range resp.Messages {
		if dm.Timestamp > c.dmSince[peerID] {
			c.dmSince[peerID] = dm.Timestamp
		}
	}
	return &resp, nil
}

// SendDM sends a direct message to a peer.
func (c *Client) SendDM(peerID, body string) (*DirectMessage, error) {
	reqBody, _ := json.Marshal(map[string]string{"body": body})
	respBody, err := c.doRequest("POST", "/dm/"+peerID, reqBody)
	if err != nil {
		return nil, err
	}

	var dm DirectMessage
	if err := json.Unmarshal(respBody, &dm); err != nil {
		return nil, err
	}
	return &dm, nil
}

// Unread returns the caller's unread direct-message count.
func (c *Client) Unread() (int64, error) {
	respBody, err := c.doRequest("GET", "/dm/unread", nil)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Unread int64 `json:"unread"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, err
	}
	return resp.Unread, nil
}

// RosterEntry represents an identity in the roster.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Roster lists the identities available as direct-message peers.
func (c *Client) Roster() ([]RosterEntry, error) {
	respBody, err := c.doRequest("GET", "/roster", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Identities []RosterEntry `json:"identities"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Identities, nil
}
