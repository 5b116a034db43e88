package messagix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"
	"go.mau.fi/util/random"
	"golang.org/x/sync/errgroup"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

// uploadIDTypes are the metadata ID fields the upload endpoint may return,
// in lookup order. The field prefix becomes the attachment type.
var uploadIDTypes = []string{"image", "video", "audio", "gif", "file"}

func validateAttachments(attachments []*Attachment) error {
	for i, att := range attachments {
		if att == nil {
			return fmt.Errorf("%w and not %T (attachment %d)", ErrInvalidAttachmentType, nil, i)
		} else if att.Reader == nil {
			return fmt.Errorf("%w and not %T (attachment %d)", ErrInvalidAttachmentType, att.Reader, i)
		}
	}
	return nil
}

// UploadAttachments uploads all attachments concurrently and returns their
// metadata in input order. Every attachment is validated before anything is
// uploaded, and the first failed upload cancels the others.
func (c *Client) UploadAttachments(ctx context.Context, attachments []*Attachment) ([]*types.UploadResult, error) {
	if c == nil {
		return nil, ErrClientIsNil
	} else if err := validateAttachments(attachments); err != nil {
		return nil, err
	}

	results := make([]*types.UploadResult, len(attachments))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, att := range attachments {
		eg.Go(func() error {
			result, err := c.uploadAttachment(egCtx, att)
			if err != nil {
				return fmt.Errorf("failed to upload attachment %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		c.logFor(ctx).Err(err).Int("attachment_count", len(attachments)).Msg("Attachment upload failed")
		return nil, err
	}
	return results, nil
}

func (c *Client) uploadAttachment(ctx context.Context, att *Attachment) (*types.UploadResult, error) {
	data, err := io.ReadAll(att.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	payload, contentType, err := c.newMercuryMediaPayload(att, data)
	if err != nil {
		return nil, err
	}
	h := c.buildHeaders()
	h.Set("content-type", contentType)

	_, respBody, err := c.MakeRequest(ctx, c.GetEndpoint("media_upload"), http.MethodPost, h, payload, types.NONE)
	if err != nil {
		return nil, err
	}
	parsed, err := c.decodeResponse(ctx, respBody)
	if err != nil {
		return nil, err
	}
	return parseUploadMetadata(parsed)
}

// newMercuryMediaPayload returns the multipart body and its content type.
func (c *Client) newMercuryMediaPayload(att *Attachment, data []byte) ([]byte, string, error) {
	var mercuryPayload bytes.Buffer
	writer := multipart.NewWriter(&mercuryPayload)

	err := writer.SetBoundary("----WebKitFormBoundary" + random.String(16))
	if err != nil {
		return nil, "", fmt.Errorf("messagix-mercury: Failed to set boundary (%w)", err)
	}

	defaults, err := c.requestDefaultValues()
	if err != nil {
		return nil, "", err
	}
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if err = writer.WriteField(key, defaults.Get(key)); err != nil {
			return nil, "", fmt.Errorf("messagix-mercury: Failed to write %s field (%w)", key, err)
		}
	}
	if err = writer.WriteField("voice_clip", "true"); err != nil {
		return nil, "", fmt.Errorf("messagix-mercury: Failed to write voice_clip field (%w)", err)
	}

	mimeType := att.MimeType
	filename := att.Filename
	if mimeType == "" || filename == "" {
		detected := mimetype.Detect(data)
		if mimeType == "" {
			mimeType = detected.String()
		}
		if filename == "" {
			filename = "upload" + detected.Extension()
		}
	}

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="upload_1024"; filename="%s"`, escapeQuotes(filename)))
	partHeader.Set("Content-Type", mimeType)

	mediaPart, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, "", fmt.Errorf("messagix-mercury: Failed to create multipart writer (%w)", err)
	}

	_, err = mediaPart.Write(data)
	if err != nil {
		return nil, "", fmt.Errorf("messagix-mercury: Failed to write data to multipart section (%w)", err)
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("messagix-mercury: Failed to close multipart writer (%w)", err)
	}

	return mercuryPayload.Bytes(), writer.FormDataContentType(), nil
}

func (c *Client) requestDefaultValues() (url.Values, error) {
	form := NewForm()
	if err := form.SetStruct(c.newRequestDefaults()); err != nil {
		return nil, err
	}
	return form.Values(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

/*
The upload metadata is a list for images:

	"metadata": [{"image_id": 1, "filename": "", "filetype": "", "src": ""}]

and a map keyed by index for videos:

	"metadata": {"0": {"video_id": 1, "filename": "", "filetype": "", "thumbnail_src": ""}}

gjson resolves "0" for both shapes.
*/
func parseUploadMetadata(parsed gjson.Result) (*types.UploadResult, error) {
	metadata := parsed.Get("payload.metadata")
	if !metadata.Exists() {
		return nil, fmt.Errorf("no metadata in upload response")
	} else if !metadata.IsArray() && !metadata.IsObject() {
		return nil, fmt.Errorf("unexpected metadata in upload response")
	}
	first := metadata.Get("0")
	if !first.IsObject() {
		return nil, fmt.Errorf("no metadata in upload response")
	}

	attachmentType := first.Get("type").String()
	var id int64
	if attachmentType != "" {
		id = first.Get(attachmentType + "_id").Int()
	}
	if id == 0 {
		for _, candidate := range uploadIDTypes {
			if id = first.Get(candidate + "_id").Int(); id != 0 {
				if attachmentType == "" {
					attachmentType = candidate
				}
				break
			}
		}
	}
	if id == 0 {
		id = first.Get("fbid").Int()
	}
	if id == 0 || attachmentType == "" {
		return nil, fmt.Errorf("unrecognized metadata in upload response: %s", first.Raw)
	}

	creationTimestamp := first.Get("creation_timestamp")
	if !creationTimestamp.Exists() {
		creationTimestamp = first.Get("creationTimestamp")
	}
	return &types.UploadResult{
		ID:                id,
		Filename:          first.Get("filename").String(),
		Filetype:          first.Get("filetype").String(),
		Filesize:          first.Get("filesize").Int(),
		CreationTimestamp: creationTimestamp.Int(),
		Type:              attachmentType,
		Src:               first.Get("src").String(),
	}, nil
}
