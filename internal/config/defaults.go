package config

const (
	defaultDataDir             = "~/.local/share/cheatdb"
	defaultLogDir              = "~/.local/share/cheatdb/logs"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultDirectoryBaseURL    = "https://api.vk.com/method"
	defaultDirectoryAPIVersion = "5.131"
	defaultDirectoryTimeout    = 10
	defaultFiftyToken          = "50"
	defaultSectionMarker       = "fifty"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultProfileHosts = []string{"vk.com", "vk.ru"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Directory: Directory{
			BaseURL:        defaultDirectoryBaseURL,
			APIVersion:     defaultDirectoryAPIVersion,
			TimeoutSeconds: defaultDirectoryTimeout,
		},
		Classifier: Classifier{
			ProfileHosts: append([]string(nil), defaultProfileHosts...),
			FiftyToken:   defaultFiftyToken,
		},
		Import: Import{
			SectionMarker: defaultSectionMarker,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
