package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSubtitles(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeSpeech()
	c.normalizeEncoder()
	c.normalizeQueue()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.MaterialsDir, err = expandPath(c.Paths.MaterialsDir); err != nil {
		return fmt.Errorf("paths.materials_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	c.Video.Template = strings.ToLower(strings.TrimSpace(c.Video.Template))
	if c.Video.Template == "" {
		c.Video.Template = defaultTemplate
	}
	c.Video.BackgroundKind = strings.ToLower(strings.TrimSpace(c.Video.BackgroundKind))
	if c.Video.BackgroundKind == "" {
		c.Video.BackgroundKind = defaultBackgroundKind
	}
	c.Video.BackgroundColor = strings.TrimSpace(c.Video.BackgroundColor)
	if c.Video.BackgroundColor == "" {
		c.Video.BackgroundColor = defaultBackgroundColor
	}
	c.Video.GradientTop = strings.TrimSpace(c.Video.GradientTop)
	if c.Video.GradientTop == "" {
		c.Video.GradientTop = defaultGradientTop
	}
	c.Video.GradientBottom = strings.TrimSpace(c.Video.GradientBottom)
	if c.Video.GradientBottom == "" {
		c.Video.GradientBottom = defaultGradientBottom
	}
	c.Video.BackgroundAsset = strings.TrimSpace(c.Video.BackgroundAsset)
	if c.Video.Width <= 0 {
		c.Video.Width = defaultVideoWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultVideoHeight
	}
	if c.Video.FrameRate <= 0 {
		c.Video.FrameRate = defaultFrameRate
	}
}

func (c *Config) normalizeSubtitles() error {
	var err error
	if strings.TrimSpace(c.Subtitles.FontPath) != "" {
		if c.Subtitles.FontPath, err = expandPath(c.Subtitles.FontPath); err != nil {
			return fmt.Errorf("subtitles.font_path: %w", err)
		}
	}
	if c.Subtitles.MaxLineWidth <= 0 {
		c.Subtitles.MaxLineWidth = defaultMaxLineWidth
	}
	if c.Subtitles.FontSize <= 0 {
		c.Subtitles.FontSize = defaultFontSize
	}
	c.Subtitles.TextColor = strings.TrimSpace(c.Subtitles.TextColor)
	if c.Subtitles.TextColor == "" {
		c.Subtitles.TextColor = defaultTextColor
	}
	c.Subtitles.StrokeColor = strings.TrimSpace(c.Subtitles.StrokeColor)
	if c.Subtitles.StrokeColor == "" {
		c.Subtitles.StrokeColor = defaultStrokeColor
	}
	c.Subtitles.PlateColor = strings.TrimSpace(c.Subtitles.PlateColor)
	if c.Subtitles.PlateColor == "" {
		c.Subtitles.PlateColor = defaultPlateColor
	}
	c.Subtitles.Anchor = strings.ToLower(strings.TrimSpace(c.Subtitles.Anchor))
	if c.Subtitles.Anchor == "" {
		c.Subtitles.Anchor = defaultAnchor
	}
	return nil
}

func (c *Config) normalizeSpeech() {
	c.Speech.Command = strings.TrimSpace(c.Speech.Command)
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	c.Speech.Language = strings.TrimSpace(c.Speech.Language)
	if c.Speech.Language == "" {
		c.Speech.Language = defaultSpeechLanguage
	}
	if c.Speech.Rate <= 0 {
		c.Speech.Rate = defaultSpeechRate
	}
	if c.Speech.Volume <= 0 {
		c.Speech.Volume = defaultSpeechVolume
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpeg = strings.TrimSpace(c.Encoder.FFmpeg)
	c.Encoder.FFprobe = strings.TrimSpace(c.Encoder.FFprobe)
	c.Encoder.Container = strings.ToLower(strings.TrimSpace(c.Encoder.Container))
	if c.Encoder.Container == "" {
		c.Encoder.Container = defaultContainer
	}
	c.Encoder.VideoCodec = strings.TrimSpace(c.Encoder.VideoCodec)
	if c.Encoder.VideoCodec == "" {
		c.Encoder.VideoCodec = defaultVideoCodec
	}
	c.Encoder.AudioCodec = strings.TrimSpace(c.Encoder.AudioCodec)
	if c.Encoder.AudioCodec == "" {
		c.Encoder.AudioCodec = defaultAudioCodec
	}
	c.Encoder.AudioBitrate = strings.TrimSpace(c.Encoder.AudioBitrate)
	if c.Encoder.AudioBitrate == "" {
		c.Encoder.AudioBitrate = defaultAudioBitrate
	}
	c.Encoder.Preset = strings.ToLower(strings.TrimSpace(c.Encoder.Preset))
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultEncoderPreset
	}
	if c.Encoder.CRF <= 0 {
		c.Encoder.CRF = defaultCRF
	}
	if c.Encoder.TimeoutSeconds <= 0 {
		c.Encoder.TimeoutSeconds = defaultEncoderTimeoutSeconds
	}
}

func (c *Config) normalizeQueue() {
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = defaultQueuePollInterval
	}
	if c.Queue.HeartbeatInterval <= 0 {
		c.Queue.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Queue.HeartbeatTimeout <= 0 {
		c.Queue.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.Queue.MaxAttempts <= 0 {
		c.Queue.MaxAttempts = defaultMaxAttempts
	}
	if c.Queue.BackoffMinSeconds <= 0 {
		c.Queue.BackoffMinSeconds = defaultBackoffMinSeconds
	}
	if c.Queue.BackoffMaxSeconds <= 0 {
		c.Queue.BackoffMaxSeconds = defaultBackoffMaxSeconds
	}
	if c.Queue.BackoffFactor < 1 {
		c.Queue.BackoffFactor = defaultBackoffFactor
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("REELSMITH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
