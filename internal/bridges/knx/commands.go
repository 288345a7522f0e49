package knx

import (
	"context"
	"fmt"
)

// SendVolumeCommand writes a volume level (0-100) to a group address
// as DPT 5.001.
func (c *Client) SendVolumeCommand(ctx context.Context, ga GroupAddress, volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("%w: volume must be 0-100, got %d", ErrTelegramFailed, volume)
	}
	return c.send(ctx, ga, EncodeDPT5(float64(volume)))
}

// SendBooleanCommand writes a boolean (mute, playback running) to a
// group address as DPT 1.001.
func (c *Client) SendBooleanCommand(ctx context.Context, ga GroupAddress, value bool) error {
	return c.send(ctx, ga, EncodeDPT1(value))
}
