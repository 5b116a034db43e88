package messagix

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

const sharePreviewImageSize = 960

// ResolveURL asks the server for the preview of a link. A response without
// a payload means the server could not resolve the URL.
func (c *Client) ResolveURL(ctx context.Context, uri string) (*types.ShareData, error) {
	if c == nil {
		return nil, ErrClientIsNil
	}
	form := NewForm()
	err := form.SetStruct(&types.SharePreviewForm{
		ImageHeight: sharePreviewImageSize,
		ImageWidth:  sharePreviewImageSize,
		URI:         uri,
	})
	if err != nil {
		return nil, err
	}
	parsed, err := c.postForm(ctx, "share_preview", form)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve url preview: %w", err)
	}
	payload := parsed.Get("payload")
	if !payload.Exists() || payload.Type == gjson.Null || (payload.IsObject() && len(payload.Map()) == 0) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, uri)
	}
	return parseShareData(payload, uri)
}

func parseShareData(payload gjson.Result, uri string) (*types.ShareData, error) {
	shareData := payload.Get("share_data")
	if !shareData.Exists() {
		shareData = payload
	}
	params := shareData.Get("share_params")
	if !params.IsObject() {
		return nil, fmt.Errorf("%w: no share params for %s", ErrInvalidURL, uri)
	}
	shareType := shareData.Get("share_type").String()
	if shareType == "" {
		shareType = ShareTypeLink
	}
	data := &types.ShareData{
		ShareType:    shareType,
		CanonicalURL: params.Get("canonical" + shareType + "_url").String(),
		Description:  params.Get("description" + shareType + "_text").String(),
		Title:        params.Get("title").String(),
		Link:         params.Get("link").String(),
		Raw:          json.RawMessage(params.Raw),
	}
	if data.Link == "" {
		data.Link = params.Get("url").String()
	}
	params.Get("images").ForEach(func(_, image gjson.Result) bool {
		if image.IsObject() {
			image = image.Get("uri")
		}
		if image.String() != "" {
			data.Images = append(data.Images, image.String())
		}
		return true
	})
	return data, nil
}
