package messagix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"go.mau.fi/mercury-send/pkg/messagix/methods"
	"go.mau.fi/mercury-send/pkg/messagix/types"
)

const (
	mercuryClient     = "mercury"
	userMessageAction = "ma-type:user-generated-message"
	webChatSource     = "source:chat:web"
	// ShareTypeLink is the share type of a plain link preview.
	ShareTypeLink = "100"
)

var ErrSendPanicked = errors.New("panic while sending message")

// Send sends a message and waits for the server to accept it. Every outcome,
// including panics inside the form builders, is reported through the
// returned error.
func (c *Client) Send(ctx context.Context, msg *Message) (resp *types.SendResponse, err error) {
	if c == nil {
		return nil, ErrClientIsNil
	}
	defer func() {
		if p := recover(); p != nil {
			c.Logger.Error().
				Any("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("Panic while sending message")
			resp, err = nil, fmt.Errorf("%w: %v", ErrSendPanicked, p)
		}
	}()

	kind, err := ParseMessage(msg)
	if err != nil {
		return nil, err
	} else if err = msg.Target.validate(); err != nil {
		return nil, err
	}

	otid := methods.GenerateOfflineThreadingID()
	log := c.Logger.With().
		Stringer("kind", kind).
		Stringer("target", msg.Target).
		Int64("offline_threading_id", otid).
		Logger()
	ctx = log.WithContext(ctx)

	var form *Form
	switch kind {
	case KindText:
		form, err = c.buildTextForm(ctx, msg)
	case KindSticker:
		form, err = c.buildStickerForm(msg, otid)
	case KindEmoji:
		form, err = c.buildEmojiForm(msg, otid)
	case KindAttachment:
		form, err = c.buildAttachmentForm(ctx, msg, otid)
	case KindURL:
		form, err = c.buildURLForm(ctx, msg, otid)
	case KindLocation:
		form, err = c.buildLocationForm(msg, otid)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedMessageKind, kind)
	}
	if err != nil {
		log.Err(err).Msg("Failed to prepare message")
		return nil, err
	}
	return c.sendContent(ctx, form, msg.Target, otid)
}

// SendAsync runs Send in a new goroutine and calls callback exactly once
// with the result. A nil callback discards the result.
func (c *Client) SendAsync(ctx context.Context, msg *Message, callback func(*types.SendResponse, error)) {
	if callback == nil {
		callback = func(*types.SendResponse, error) {}
	}
	go func() {
		callback(c.Send(ctx, msg))
	}()
}

func (c *Client) newEnvelope(target Target, otid int64) *types.MessageEnvelope {
	return &types.MessageEnvelope{
		Client:             mercuryClient,
		ActionType:         userMessageAction,
		Author:             "fbid:" + c.userIDString(),
		ThreadID:           target.ID(),
		Source:             webChatSource,
		OfflineThreadingID: otid,
		Timestamp:          methods.GenerateTimestamp(),
	}
}

func (c *Client) newEnvelopeForm(form *Form, target Target, otid int64) (*Form, error) {
	if err := form.SetStruct(c.newEnvelope(target, otid)); err != nil {
		return nil, err
	}
	return form, nil
}

// buildTextForm builds a plain text message. Text is the only kind sent
// without the message_batch envelope.
func (c *Client) buildTextForm(ctx context.Context, msg *Message) (*Form, error) {
	if msg.Body == "" {
		return nil, ErrEmptyMessageBody
	}
	form := NewForm().Set("body", msg.Body)
	if len(msg.Mentions) > 0 {
		mentions, err := json.Marshal(msg.Mentions)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal mentions: %w", err)
		}
		form.SetBool("has_attachment", true)
		form.Set("author", "fbid:"+c.userIDString())
		form.Set(FormKey("mentions", 0), string(mentions))
	}
	if msg.URL != "" {
		share, err := c.ResolveURL(ctx, msg.URL)
		if err != nil {
			return nil, err
		}
		shareType := share.ShareType
		if shareType == "" {
			shareType = ShareTypeLink
		}
		setShareFields(form, shareType, share, msg.URL)
	}
	return form, nil
}

func (c *Client) buildStickerForm(msg *Message, otid int64) (*Form, error) {
	form := NewForm().Set("sticker_id", msg.Sticker)
	return c.newEnvelopeForm(form, msg.Target, otid)
}

func (c *Client) buildEmojiForm(msg *Message, otid int64) (*Form, error) {
	form := NewForm().
		Set("emoji_choice", msg.Emoji).
		Set("emoji_size", msg.EmojiSize)
	return c.newEnvelopeForm(form, msg.Target, otid)
}

func (c *Client) buildAttachmentForm(ctx context.Context, msg *Message, otid int64) (*Form, error) {
	uploads, err := c.UploadAttachments(ctx, msg.Attachments)
	if err != nil {
		return nil, err
	}
	form, err := c.newEnvelopeForm(NewForm(), msg.Target, otid)
	if err != nil {
		return nil, err
	}
	form.SetBool(FormKey("message_batch", 0, "has_attachment"), true)
	for _, upload := range uploads {
		if form.Has(attachmentKey("fbid", upload.Type)) {
			zerolog.Ctx(ctx).Warn().
				Str("attachment_type", upload.Type).
				Int64("attachment_id", upload.ID).
				Msg("Multiple attachments of the same type, only the last one will be sent")
		}
		form.SetInt(attachmentKey("fbid", upload.Type), upload.ID)
		form.Set(attachmentKey("filename", upload.Type), upload.Filename)
		form.Set(attachmentKey("filetype", upload.Type), upload.Filetype)
		form.SetInt(attachmentKey("filesize", upload.Type), upload.Filesize)
		form.SetInt(attachmentKey("creation_timestamp", upload.Type), upload.CreationTimestamp)
	}
	return form, nil
}

func attachmentKey(field, attachmentType string) string {
	return FormKey("message_batch", 0, "attachment", field+"_"+attachmentType)
}

func (c *Client) buildURLForm(ctx context.Context, msg *Message, otid int64) (*Form, error) {
	share, err := c.ResolveURL(ctx, msg.URL)
	if err != nil {
		return nil, err
	}
	form := NewForm()
	setShareFields(form, ShareTypeLink, share, msg.URL)
	return c.newEnvelopeForm(form, msg.Target, otid)
}

func setShareFields(form *Form, shareType string, share *types.ShareData, fallbackURL string) {
	canonicalURL := share.CanonicalURL
	if canonicalURL == "" {
		canonicalURL = fallbackURL
	}
	link := share.Link
	if link == "" {
		link = fallbackURL
	}
	form.Set(FormKey("shareable_attachment", "share_type"), shareType)
	form.Set(FormKey("shareable_attachment", "share_params", "canonical"+shareType+"_url"), canonicalURL)
	form.Set(FormKey("shareable_attachment", "share_params", "description"+shareType+"_text"), share.Description)
	form.Set(FormKey("shareable_attachment", "share_params", "title"), share.Title)
	form.Set(FormKey("shareable_attachment", "share_params", "url"), link)
	if len(share.Images) > 0 {
		form.Set(FormKey("shareable_attachment", "share_params", "images", 0), share.Images[0])
	}
}

func (c *Client) buildLocationForm(msg *Message, otid int64) (*Form, error) {
	coordinates, err := json.Marshal(msg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	form := NewForm().Set("coordinates", string(coordinates))
	return c.newEnvelopeForm(form, msg.Target, otid)
}

// applyTarget adds the recipient fields. The same three cases apply to
// every message kind.
func (c *Client) applyTarget(form *Form, target Target, otid int64) {
	switch {
	case target.IsNewGroup():
		participants := target.Participants()
		for i, participant := range participants {
			form.Set(FormKey("specific_to_list", i), "fbid:"+participant)
		}
		form.Set(FormKey("specific_to_list", len(participants)), "fbid:"+c.userIDString())
		form.Set("client_thread_id", "root:"+strconv.FormatInt(otid, 10))
	case target.IsSingleUser():
		form.Set(FormKey("specific_to_list", 0), "fbid:"+target.ID())
		form.Set("client_thread_id", "user:"+target.ID())
	default:
		form.Set("thread_id", target.ID())
		form.Set("client_thread_id", "thread:"+target.ID())
	}
}

func (c *Client) sendContent(ctx context.Context, form *Form, target Target, otid int64) (*types.SendResponse, error) {
	c.applyTarget(form, target, otid)
	log := zerolog.Ctx(ctx)
	switch {
	case target.IsNewGroup():
		log.Info().Strs("participants", target.Participants()).Msg("Sending message to new group chat")
	case target.IsSingleUser():
		log.Info().Str("user_id", target.ID()).Msg("Sending message to user")
	default:
		log.Info().Str("thread_id", target.ID()).Msg("Sending message to thread")
	}

	parsed, err := c.postForm(ctx, "send", form)
	if err != nil {
		log.Err(err).Msg("Failed to send message")
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return parseSendResponse(parsed.Get("payload"), otid), nil
}

func parseSendResponse(payload gjson.Result, otid int64) *types.SendResponse {
	action := payload.Get("actions.0")
	return &types.SendResponse{
		MessageID:          action.Get("message_id").String(),
		ThreadID:           action.Get("thread_fbid").String(),
		Timestamp:          action.Get("timestamp").Int(),
		OfflineThreadingID: otid,
		Raw:                json.RawMessage(payload.Raw),
	}
}
