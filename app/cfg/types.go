package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath   string
	FeedsDir string

	// HTTP adapter
	Port         string
	APIAccessKey string

	// Ingestion
	WorkerCount        int
	RefreshInterval    int // seconds
	RefreshConcurrency int
	FetchTimeout       int // seconds
	HostRateInterval   int // milliseconds
	IconDiscovery      bool
	SanitizeContent    bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) GetRefreshInterval() time.Duration {
	if c.RefreshInterval <= 0 {
		return 1800 * time.Second
	}
	return time.Duration(c.RefreshInterval) * time.Second
}

func (c *Cfg) GetFetchTimeout() time.Duration {
	if c.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) GetHostRateInterval() time.Duration {
	if c.HostRateInterval <= 0 {
		return 0
	}
	return time.Duration(c.HostRateInterval) * time.Millisecond
}
