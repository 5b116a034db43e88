package messagix

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

var (
	ErrEmptyMessageBody       = errors.New("cannot send message without content")
	ErrUnsupportedMessageKind = errors.New("cannot send that type of message")
	ErrAmbiguousMessageKind   = errors.New("message has content of more than one kind")
	ErrInvalidAttachmentType  = errors.New("attachment should be a readable stream")
	ErrInvalidURL             = errors.New("invalid url")
	ErrInvalidTarget          = errors.New("invalid message target")
	ErrUserNotFound           = errors.New("no user found")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindSticker
	KindEmoji
	KindAttachment
	KindURL
	KindLocation
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSticker:
		return "sticker"
	case KindEmoji:
		return "emoji"
	case KindAttachment:
		return "attachment"
	case KindURL:
		return "url"
	case KindLocation:
		return "location"
	default:
		return "unknown"
	}
}

type targetType int

const (
	targetNone targetType = iota
	targetThread
	targetUser
	targetNewGroup
)

// Target is where a message goes: an existing thread, a single user, or a
// new group made of the listed participants plus the sender.
type Target struct {
	typ          targetType
	id           string
	participants []string
}

func ThreadTarget(threadID string) Target {
	return Target{typ: targetThread, id: threadID}
}

func UserTarget(userID string) Target {
	return Target{typ: targetUser, id: userID}
}

// NewGroupTarget creates a group with the given members. The sender is
// always added as the last member and must not be listed.
func NewGroupTarget(participants ...string) Target {
	return Target{typ: targetNewGroup, participants: participants}
}

func (t Target) IsZero() bool {
	return t.typ == targetNone
}

func (t Target) IsNewGroup() bool {
	return t.typ == targetNewGroup
}

func (t Target) IsSingleUser() bool {
	return t.typ == targetUser
}

// ID is the thread or user ID. It is empty for new groups.
func (t Target) ID() string {
	return t.id
}

func (t Target) Participants() []string {
	return t.participants
}

func (t Target) validate() error {
	switch t.typ {
	case targetThread, targetUser:
		if t.id == "" {
			return fmt.Errorf("%w: empty ID", ErrInvalidTarget)
		}
	case targetNewGroup:
		if len(t.participants) == 0 {
			return fmt.Errorf("%w: no group participants", ErrInvalidTarget)
		}
		for i, participant := range t.participants {
			if participant == "" {
				return fmt.Errorf("%w: empty participant at index %d", ErrInvalidTarget, i)
			}
		}
	default:
		return fmt.Errorf("%w: no target", ErrInvalidTarget)
	}
	return nil
}

func (t Target) String() string {
	switch t.typ {
	case targetThread:
		return "thread:" + t.id
	case targetUser:
		return "user:" + t.id
	case targetNewGroup:
		return "group:" + strings.Join(t.participants, ",")
	default:
		return ""
	}
}

type Attachment struct {
	Filename string
	// MimeType is detected from the content if empty.
	MimeType string
	Reader   io.Reader
}

func NewAttachment(filename string, reader io.Reader) *Attachment {
	return &Attachment{Filename: filename, Reader: reader}
}

// Message describes one outgoing message. Exactly one kind of content may be
// set, with the exception that a text body may carry mentions and a URL
// whose preview is attached to the text.
type Message struct {
	Body     string
	Mentions []types.Mention

	Sticker   string
	Emoji     string
	EmojiSize string

	Attachments []*Attachment
	URL         string
	Location    *types.Location

	Target Target
}

// ParseMessage determines the kind of a message, rejecting messages that
// have no content or content of several kinds.
func ParseMessage(msg *Message) (Kind, error) {
	if msg == nil {
		return KindUnknown, ErrUnsupportedMessageKind
	}
	var kinds []Kind
	if msg.Sticker != "" {
		kinds = append(kinds, KindSticker)
	}
	if msg.Emoji != "" || msg.EmojiSize != "" {
		kinds = append(kinds, KindEmoji)
	}
	if len(msg.Attachments) > 0 {
		kinds = append(kinds, KindAttachment)
	}
	if msg.URL != "" && msg.Body == "" {
		kinds = append(kinds, KindURL)
	}
	if msg.Location != nil {
		kinds = append(kinds, KindLocation)
	}

	switch {
	case msg.Body != "" && len(kinds) > 0:
		return KindUnknown, fmt.Errorf("%w: text and %s", ErrAmbiguousMessageKind, kinds[0])
	case msg.Body != "":
		return KindText, nil
	case len(kinds) > 1:
		return KindUnknown, fmt.Errorf("%w: %s and %s", ErrAmbiguousMessageKind, kinds[0], kinds[1])
	case len(kinds) == 1:
		if len(msg.Mentions) > 0 {
			return KindUnknown, fmt.Errorf("%w: mentions require a text body", ErrEmptyMessageBody)
		}
		return kinds[0], nil
	case len(msg.Mentions) > 0 || !msg.Target.IsZero():
		return KindUnknown, ErrEmptyMessageBody
	default:
		return KindUnknown, ErrUnsupportedMessageKind
	}
}
