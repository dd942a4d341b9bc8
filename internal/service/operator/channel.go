package operator

import (
	"context"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
	"minishop-gateway/internal/domain"
)

// QRSize is the side in pixels of generated QR codes.
const QRSize = 256

// ChannelConnectLink is the deep link that adds the bot to a channel for a branch.
func ChannelConnectLink(bot, branchID string) (string, error) {
	bot = strings.TrimPrefix(strings.TrimSpace(bot), "@")
	branchID = strings.TrimSpace(branchID)
	if bot == "" {
		return "", domain.Invalid("bot", "bot username not configured")
	}
	if branchID == "" {
		return "", domain.Invalid("branchId", "branch id required")
	}
	return "https://t.me/" + url.PathEscape(bot) + "?startchannel=branch_" + url.QueryEscape(branchID), nil
}

// ChannelConnectLink uses the configured bot.
func (s *Service) ChannelConnectLink(branchID string) (string, error) {
	return ChannelConnectLink(s.botUsername, branchID)
}

// CheckChannel reports whether the branch's Telegram channel is connected.
func (s *Service) CheckChannel(ctx context.Context, branchID string) (bool, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return false, domain.Invalid("branchId", "branch id required")
	}
	path := "/operator/branch/" + url.PathEscape(branchID) + "/channel"
	var body struct {
		Connected bool `json:"connected"`
	}
	if err := s.fetch(ctx, path, nil, "Failed to check channel connection.", &body); err != nil {
		return false, err
	}
	return body.Connected, nil
}

// StoreLink is the public storefront URL for a shop slug.
func (s *Service) StoreLink(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", domain.Invalid("slug", "shop has no slug")
	}
	base := strings.TrimSuffix(s.storefrontBase, "/")
	if base == "" {
		return "", domain.Invalid("storefront", "storefront base URL not configured")
	}
	return base + "/" + url.PathEscape(slug), nil
}

// StoreLinkQR renders link as a PNG QR code.
func StoreLinkQR(link string) ([]byte, error) {
	if strings.TrimSpace(link) == "" {
		return nil, domain.Invalid("url", "link required")
	}
	return qrcode.Encode(link, qrcode.Medium, QRSize)
}
