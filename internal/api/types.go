package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// HardwareItem mirrors one record of GET /hardware.
type HardwareItem struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Components   []string `json:"components"`
	Tags         []string `json:"tags"`
	License      string   `json:"license"`
	Manufacturer string   `json:"manufacturer"`
	SchematicURL string   `json:"schematic_url"`
	ImageURL     string   `json:"image_url"`
	VideoURL     string   `json:"video_url"`
	PublishedAt  string   `json:"published_at"`
}

// Pagination describes the paging envelope of GET /hardware.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// HardwarePage is the decoded GET /hardware response.
type HardwarePage struct {
	Items      []HardwareItem `json:"items"`
	Pagination *Pagination    `json:"pagination"`
}

// AuthCheck is the decoded GET /auth/check response.
type AuthCheck struct {
	UserID UserID `json:"user_id"`
}

// UserID accepts either a JSON number or a JSON string.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*u = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("user_id: %w", err)
		}
		*u = UserID(n.String())
	}
	return nil
}

// BookmarkAck is the decoded POST/DELETE /bookmarks/{id} response.
type BookmarkAck struct {
	Message string `json:"message"`
}

// Server acknowledgement messages for bookmark mutations.
const (
	MessageNewlyBookmarked   = "newly bookmarked"
	MessageAlreadyBookmarked = "already bookmarked"
	MessageNewlyDeleted      = "newly deleted"
	MessageAlreadyAbsent     = "already absent"
)

// Normalized returns the message lowercased and trimmed for comparison.
func (a BookmarkAck) Normalized() string {
	return strings.ToLower(strings.TrimSpace(a.Message))
}

type bookmarkList struct {
	ItemIDs []int `json:"item_ids"`
}

type categoryList struct {
	Categories []string `json:"categories"`
}

// errorEnvelope captures the business error field any endpoint may carry.
type errorEnvelope struct {
	Error string `json:"error"`
}
