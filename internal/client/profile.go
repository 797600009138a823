package client

import (
	"context"

	"github.com/wwebgo/wweb/internal/bridge"
	"github.com/wwebgo/wweb/internal/media"
)

// SetDisplayName changes the session's display name. The remote rejects
// names outside its length policy with a server status error, reported as
// false.
func (c *Client) SetDisplayName(ctx context.Context, name string) (bool, error) {
	return c.profileSetting(ctx, fnSetDisplayName, name)
}

// SetStatusMessage changes the session's about text.
func (c *Client) SetStatusMessage(ctx context.Context, status string) error {
	_, err := c.execute(ctx, fnSetStatusMessage, status)
	return err
}

// SetProfilePicture replaces the session's profile picture.
func (c *Client) SetProfilePicture(ctx context.Context, picture *media.Media) (bool, error) {
	return c.profileSetting(ctx, fnSetProfilePicture, picture.Base64())
}

// DeleteProfilePicture removes the session's profile picture.
func (c *Client) DeleteProfilePicture(ctx context.Context) (bool, error) {
	return c.profileSetting(ctx, fnDeleteProfilePic)
}

func (c *Client) profileSetting(ctx context.Context, fn string, args ...any) (bool, error) {
	_, err := c.execute(ctx, fn, args...)
	if bridge.IsRemote(err, errServerStatus) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
