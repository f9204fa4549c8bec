package cfg

type Cfg struct {
	// iNews server configuration
	INewsHost     string
	INewsUser     string
	INewsPassword string

	// Application configuration
	RundownsDir  string
	DownloadPath string
	DBPath       string
	Port         string
	TickInterval int
	APIAccessKey string

	// Asset fetcher configuration
	TwitterBearerToken string
	UserAgent          string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
