package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-downloader/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// HarvestConfig holds settings for the metadata harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageDelay is the sleep between paginated esearch requests (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// PageSize is the number of pmids requested per esearch page (default 250).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// FetchConfig holds settings for the mirror-based full-text fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Mirrors is the ordered mirror list a fetch session starts from.
	// Empty means the built-in seed list.
	Mirrors []string `json:"mirrors" yaml:"mirrors"`

	// MaxAttempts bounds the retry wrapper around a download (default 10).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryMinDelay and RetryMaxDelay bound the random jitter between
	// attempts (defaults 100ms and 1s).
	RetryMinDelay time.Duration `json:"retry_min_delay" yaml:"retry_min_delay"`
	RetryMaxDelay time.Duration `json:"retry_max_delay" yaml:"retry_max_delay"`
}

// RenderConfig holds settings for the PDF-to-HTML render stage.
type RenderConfig struct {
	// Zoom is passed to pdf2htmlEX (default 1.5).
	Zoom float64 `json:"zoom" yaml:"zoom"`

	// Image is the container image used when no local pdf2htmlEX binary
	// exists (default "bwits/pdf2htmlex:latest").
	Image string `json:"image" yaml:"image"`
}

// FullTextConfig holds settings for the per-item PDF resolution step.
type FullTextConfig struct {
	// PDFBaseURL is the public base URL recorded in a record's pdf
	// reference once the artifact exists.
	PDFBaseURL string `json:"pdf_base_url" yaml:"pdf_base_url"`

	// HTMLBaseURI is the object-store base URI recorded in a record's
	// html reference.
	HTMLBaseURI string `json:"html_base_uri" yaml:"html_base_uri"`
}

// MonitorConfig holds settings for the event-driven orchestrator. It is
// passed explicitly at construction; the monitor keeps no process-wide state.
type MonitorConfig struct {
	// RootDir is the directory whose project subdirectories are watched.
	RootDir string `json:"root_dir" yaml:"root_dir"`

	// Token identifies the notification webhook; empty disables outbound
	// notifications.
	Token string `json:"token" yaml:"token"`

	// PageDelay is forwarded to the harvester (default 3s when driven by
	// events, to be gentle on the API while unattended).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// SyncConfig holds settings for the account syncer.
type SyncConfig struct {
	// Interval between sync runs.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// LabelStudioURL and LabelStudioToken locate the membership source.
	LabelStudioURL   string `json:"label_studio_url" yaml:"label_studio_url"`
	LabelStudioToken string `json:"label_studio_token,omitempty" yaml:"label_studio_token,omitempty"`

	// MinioServer plus keys configure the mc alias used for provisioning.
	MinioServer    string `json:"minio_server" yaml:"minio_server"`
	MinioAccessKey string `json:"minio_access_key,omitempty" yaml:"minio_access_key,omitempty"`
	MinioSecretKey string `json:"minio_secret_key,omitempty" yaml:"minio_secret_key,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Harvest  HarvestConfig  `json:"harvest" yaml:"harvest"`
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Render   RenderConfig   `json:"render" yaml:"render"`
	FullText FullTextConfig `json:"fulltext" yaml:"fulltext"`
	Monitor  MonitorConfig  `json:"monitor" yaml:"monitor"`
	Sync     SyncConfig     `json:"sync" yaml:"sync"`
}
