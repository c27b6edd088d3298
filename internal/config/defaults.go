package config

const (
	defaultWorkspaceDir = "~/.local/share/reelsmith/workspace"
	defaultMaterialsDir = "~/reelsmith/materials"
	defaultOutputDir    = "~/reelsmith/output"
	defaultLogDir       = "~/.local/share/reelsmith/logs"

	defaultVideoWidth      = 1080
	defaultVideoHeight     = 1920
	defaultFrameRate       = 30
	defaultTemplate        = "plain"
	defaultBackgroundKind  = "solid"
	defaultBackgroundColor = "#101018"
	defaultGradientTop     = "#1c1c3a"
	defaultGradientBottom  = "#05050a"

	defaultMaxLineWidth = 13.0
	defaultFontSize     = 64.0
	defaultTextColor    = "#ffffff"
	defaultStrokeColor  = "#000000"
	defaultStrokeWidth  = 2.0
	defaultPlateColor   = "#00000080"
	defaultAnchor       = "bottom"

	defaultSpeechLanguage       = "ja-JP"
	defaultSpeechRate           = 1.0
	defaultSpeechVolume         = 1.0
	defaultSpeechTimeoutSeconds = 120

	defaultContainer             = "mp4"
	defaultVideoCodec            = "libx264"
	defaultAudioCodec            = "aac"
	defaultAudioBitrate          = "192k"
	defaultEncoderPreset         = "medium"
	defaultCRF                   = 23
	defaultEncoderTimeoutSeconds = 1800

	defaultQueuePollInterval = 5
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 120
	defaultMaxAttempts       = 3
	defaultBackoffMinSeconds = 10
	defaultBackoffMaxSeconds = 600
	defaultBackoffFactor     = 2.0
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 60
	defaultNotifyTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			MaterialsDir: defaultMaterialsDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Video: Video{
			Width:           defaultVideoWidth,
			Height:          defaultVideoHeight,
			FrameRate:       defaultFrameRate,
			Template:        defaultTemplate,
			BackgroundKind:  defaultBackgroundKind,
			BackgroundColor: defaultBackgroundColor,
			GradientTop:     defaultGradientTop,
			GradientBottom:  defaultGradientBottom,
		},
		Subtitles: Subtitles{
			MaxLineWidth: defaultMaxLineWidth,
			FontSize:     defaultFontSize,
			TextColor:    defaultTextColor,
			StrokeColor:  defaultStrokeColor,
			StrokeWidth:  defaultStrokeWidth,
			PlateEnabled: true,
			PlateColor:   defaultPlateColor,
			Anchor:       defaultAnchor,
		},
		Speech: Speech{
			Language:       defaultSpeechLanguage,
			Rate:           defaultSpeechRate,
			Volume:         defaultSpeechVolume,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Encoder: Encoder{
			Container:      defaultContainer,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			AudioBitrate:   defaultAudioBitrate,
			Preset:         defaultEncoderPreset,
			CRF:            defaultCRF,
			TimeoutSeconds: defaultEncoderTimeoutSeconds,
		},
		Queue: Queue{
			PollInterval:      defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
			MaxAttempts:       defaultMaxAttempts,
			BackoffMinSeconds: defaultBackoffMinSeconds,
			BackoffMaxSeconds: defaultBackoffMaxSeconds,
			BackoffFactor:     defaultBackoffFactor,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Production:     true,
			Render:         true,
			Errors:         true,
		},
	}
}
