package config

import (
	"errors"
	"fmt"
	"strings"
)

var validAnchors = map[string]struct{}{
	"top":    {},
	"middle": {},
	"bottom": {},
}

var validBackgroundKinds = map[string]struct{}{
	"solid":    {},
	"gradient": {},
	"image":    {},
	"video":    {},
}

var validContainers = map[string]struct{}{
	"mp4":  {},
	"webm": {},
	"mov":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even (encoder chroma subsampling)")
	}
	if c.Video.FrameRate <= 0 || c.Video.FrameRate > 120 {
		return errors.New("video.frame_rate must be between 1 and 120")
	}
	if _, ok := validBackgroundKinds[c.Video.BackgroundKind]; !ok {
		return fmt.Errorf("video.background_kind must be one of solid, gradient, image, video (got %q)", c.Video.BackgroundKind)
	}
	if (c.Video.BackgroundKind == "image" || c.Video.BackgroundKind == "video") && c.Video.BackgroundAsset == "" {
		return fmt.Errorf("video.background_asset must be set when video.background_kind is %q", c.Video.BackgroundKind)
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxLineWidth < 2 {
		return errors.New("subtitles.max_line_width must be at least 2 display units")
	}
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.font_size must be positive")
	}
	if c.Subtitles.StrokeWidth < 0 {
		return errors.New("subtitles.stroke_width must be >= 0")
	}
	if _, ok := validAnchors[c.Subtitles.Anchor]; !ok {
		return fmt.Errorf("subtitles.anchor must be one of top, middle, bottom (got %q)", c.Subtitles.Anchor)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.Rate <= 0 || c.Speech.Rate > 4 {
		return errors.New("speech.rate must be between 0 and 4")
	}
	if c.Speech.Pitch < -20 || c.Speech.Pitch > 20 {
		return errors.New("speech.pitch must be between -20 and 20")
	}
	if c.Speech.Volume <= 0 || c.Speech.Volume > 2 {
		return errors.New("speech.volume must be between 0 and 2")
	}
	if strings.TrimSpace(c.Speech.Language) == "" {
		return errors.New("speech.language must be set")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if _, ok := validContainers[c.Encoder.Container]; !ok {
		return fmt.Errorf("encoder.container must be one of mp4, webm, mov (got %q)", c.Encoder.Container)
	}
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51")
	}
	if err := ensurePositiveMap(map[string]int{
		"encoder.timeout_seconds": c.Encoder.TimeoutSeconds,
		"speech.timeout_seconds":  c.Speech.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQueue() error {
	if err := ensurePositiveMap(map[string]int{
		"queue.poll_interval":       c.Queue.PollInterval,
		"queue.max_attempts":        c.Queue.MaxAttempts,
		"queue.backoff_min_seconds": c.Queue.BackoffMinSeconds,
		"queue.backoff_max_seconds": c.Queue.BackoffMaxSeconds,
	}); err != nil {
		return err
	}
	if c.Queue.HeartbeatInterval <= 0 {
		return errors.New("queue.heartbeat_interval must be positive")
	}
	if c.Queue.HeartbeatTimeout <= 0 {
		return errors.New("queue.heartbeat_timeout must be positive")
	}
	if c.Queue.HeartbeatTimeout <= c.Queue.HeartbeatInterval {
		return errors.New("queue.heartbeat_timeout must be greater than queue.heartbeat_interval")
	}
	if c.Queue.BackoffMaxSeconds < c.Queue.BackoffMinSeconds {
		return errors.New("queue.backoff_max_seconds must be >= queue.backoff_min_seconds")
	}
	if c.Queue.BackoffFactor < 1 {
		return errors.New("queue.backoff_factor must be >= 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
