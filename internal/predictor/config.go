package predictor

// Config locates the prediction backend.
type Config struct {
	// BaseURL is the scheme+host[:port] of the backend, e.g. http://127.0.0.1:8000.
	BaseURL string

	// PredictPath and HealthPath are joined onto BaseURL.
	PredictPath string
	HealthPath  string
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://127.0.0.1:8000",
		PredictPath: "/predict",
		HealthPath:  "/healthcheck",
	}
}
