// Package media derives durable media URLs for Telegram posts from the
// channel's public embed preview page.
//
// Resolution never fails the surrounding message: a missing username, a
// failed fetch or unexpected markup simply yields no media elements.
package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

// DefaultBaseURL is the public preview host.
const DefaultBaseURL = "https://t.me"

const (
	photoSelector     = ".tgme_widget_message_photo_wrap"
	videoSelector     = "video.tgme_widget_message_video"
	videoAnySelector  = ".tgme_widget_message_video[src]"
	audioSelector     = "audio[src]"
	styleAttr         = "style"
	srcAttr           = "src"
	logFieldUsername  = "username"
	logFieldMessageID = "msg_id"
)

var backgroundImageRe = regexp.MustCompile(`background-image:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// Fetcher loads a web page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Resolver turns message attachments into media elements.
type Resolver struct {
	fetcher Fetcher
	baseURL string
	logger  *zerolog.Logger
}

// NewResolver creates a resolver reading previews below baseURL.
func NewResolver(fetcher Fetcher, baseURL string, logger *zerolog.Logger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Resolver{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// PreviewURL builds the embed preview address of a post.
func (r *Resolver) PreviewURL(username string, messageID int64) string {
	return fmt.Sprintf("%s/%s/%d?embed=1&mode=tme", r.baseURL, url.PathEscape(username), messageID)
}

// Resolve returns one element per attachment whose URL could be found, in attachment order.
// The preview page is fetched at most once per call.
func (r *Resolver) Resolve(ctx context.Context, username string, messageID int64, attachments []domain.Attachment) []domain.MediaElement {
	if username == "" || len(attachments) == 0 {
		return nil
	}

	previewURL := r.PreviewURL(username, messageID)

	body, err := r.fetcher.Fetch(ctx, previewURL)
	if err != nil {
		r.logger.Debug().Err(err).Str(logFieldUsername, username).Int64(logFieldMessageID, messageID).Msg("preview fetch failed")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		r.logger.Debug().Err(err).Str(logFieldUsername, username).Int64(logFieldMessageID, messageID).Msg("preview parse failed")
		return nil
	}

	var elements []domain.MediaElement

	for _, att := range attachments {
		mediaType, ok := MediaTypeOf(att.Kind)
		if !ok {
			continue
		}

		if src := lookup(doc, mediaType); src != "" {
			elements = append(elements, domain.MediaElement{ID: att.ID, Type: mediaType, URL: src})
		}
	}

	return elements
}

// MediaTypeOf maps a platform attachment kind to the normalized media type.
func MediaTypeOf(kind domain.AttachmentKind) (domain.MediaType, bool) {
	switch kind {
	case domain.AttachmentPhoto:
		return domain.MediaImage, true
	case domain.AttachmentAudio, domain.AttachmentVoice:
		return domain.MediaAudio, true
	case domain.AttachmentVideo, domain.AttachmentVideoNote:
		return domain.MediaVideo, true
	default:
		return "", false
	}
}

func lookup(doc *goquery.Document, mediaType domain.MediaType) string {
	switch mediaType {
	case domain.MediaImage:
		return imageURL(doc)
	case domain.MediaVideo:
		if src := firstAttr(doc, videoSelector, srcAttr); src != "" {
			return src
		}

		return firstAttr(doc, videoAnySelector, srcAttr)
	case domain.MediaAudio:
		return firstAttr(doc, audioSelector, srcAttr)
	default:
		return ""
	}
}

func imageURL(doc *goquery.Document) string {
	style := firstAttr(doc, photoSelector, styleAttr)
	if style == "" {
		return ""
	}

	match := backgroundImageRe.FindStringSubmatch(style)
	if len(match) < 2 {
		return ""
	}

	return match[1]
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	val, _ := doc.Find(selector).First().Attr(attr)

	return strings.TrimSpace(val)
}
