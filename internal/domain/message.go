package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// AttachmentType is a coarse classification derived from the file extension.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentFile  AttachmentType = "file"
)

var attachmentTypesByExt = map[string]AttachmentType{
	".jpg":  AttachmentImage,
	".jpeg": AttachmentImage,
	".png":  AttachmentImage,
	".gif":  AttachmentImage,
	".webp": AttachmentImage,
	".mp4":  AttachmentVideo,
	".mov":  AttachmentVideo,
	".avi":  AttachmentVideo,
	".webm": AttachmentVideo,
	".mkv":  AttachmentVideo,
}

// ClassifyAttachment maps a file name to its attachment type.
func ClassifyAttachment(name string) AttachmentType {
	if t, ok := attachmentTypesByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return AttachmentFile
}

// Attachment is the stored reference to uploaded bytes.
type Attachment struct {
	Type      AttachmentType
	Handle    string
	SizeBytes int64
}

// Message is one immutable entry of a chat's log. IDs increase monotonically
// and define display order.
type Message struct {
	ID         int64
	ChatID     int64
	SenderID   int64
	Text       *string
	Attachment *Attachment
	CreatedAt  time.Time
}

// NewMessage validates and builds a message. Blank text is treated as absent.
func NewMessage(chatID, senderID int64, text string, attachment *Attachment) (*Message, error) {
	msg := &Message{ChatID: chatID, SenderID: senderID, Attachment: attachment}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		msg.Text = &trimmed
	}
	if msg.Text == nil && msg.Attachment == nil {
		return nil, ErrEmptyMessage
	}
	return msg, nil
}
