package config

import "time"

type Config struct {
	MockImageDelay  time.Duration
	ProviderTimeout time.Duration
	ImageDir        string
	ImageBaseURL    string
}

func NewConfig() *Config {
	return &Config{
		MockImageDelay:  2 * time.Second,
		ProviderTimeout: 120 * time.Second,
		ImageDir:        "generated_images",
		ImageBaseURL:    "/images",
	}
}
