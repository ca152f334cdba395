package domain

import (
	"strings"
	"time"
)

// Thread is a provider-managed conversation.
type Thread struct {
	ThreadID  string            `json:"thread_id"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Turn is one message on a thread. Turns are immutable once created.
type Turn struct {
	TurnID    string         `json:"turn_id"`
	ThreadID  string         `json:"thread_id"`
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// ContentBlock is a closed set of content kinds. Only TextBlock and
// OtherBlock implement it.
type ContentBlock interface {
	contentBlock()
}

// TextBlock carries displayable text.
type TextBlock struct {
	Value string
}

// OtherBlock is any non-text content (images, files, ...). It is ignored.
type OtherBlock struct {
	Kind string
}

func (TextBlock) contentBlock()  {}
func (OtherBlock) contentBlock() {}

// Text joins the turn's text blocks in order with sep.
func (t Turn) Text(sep string) string {
	var parts []string
	for _, block := range t.Content {
		switch b := block.(type) {
		case TextBlock:
			parts = append(parts, b.Value)
		case OtherBlock:
			// not displayable
		}
	}
	return strings.Join(parts, sep)
}
