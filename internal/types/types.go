package types

// ConfigManager defines the interface for environment-level configuration management
type ConfigManager interface {
	GetAuthConfig() AuthConfig
	GetCORSConfig() CORSConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetEffectiveServerConfig() ServerConfig
	Validate() error
	DisplayServerConfig()
}

// SystemSettings defines all database-backed configuration items.
// Struct tags drive defaults, the settings API metadata, and validation.
type SystemSettings struct {
	// Scanning
	ScanIntervalMinutes  int    `json:"scan_interval_minutes" default:"5" name:"Scan interval (minutes)" category:"Scanning" desc:"How often the scanner sweeps all active alerts" validate:"required,min=1"`
	ScanTimeoutSeconds   int    `json:"scan_timeout_seconds" default:"20" name:"Scan timeout (seconds)" category:"Scanning" desc:"Per-request timeout for availability queries" validate:"required,min=1"`
	BookingHorizonDays   int    `json:"booking_horizon_days" default:"150" name:"Booking horizon (days)" category:"Scanning" desc:"Upstream reservation system booking horizon; scan windows never extend past it" validate:"required,min=1"`
	AvailableCode        int    `json:"available_code" default:"0" name:"Available code" category:"Scanning" desc:"Daily availability code the upstream feed uses for a bookable night" validate:"min=0"`
	ParksBaseURL         string `json:"parks_base_url" default:"https://camping.bcparks.ca" name:"Reservation base URL" category:"Scanning" desc:"Base URL of the upstream reservation system" validate:"required"`
	MetadataCacheMinutes int    `json:"metadata_cache_minutes" default:"60" name:"Metadata cache TTL (minutes)" category:"Scanning" desc:"How long resolved campground and site names are cached" validate:"required,min=1"`

	// SMS
	SMSLimitEnabled        bool   `json:"sms_limit_enabled" default:"false" name:"SMS cap enabled" category:"SMS" desc:"Enforce a lifetime send cap per contact"`
	SMSLimitMax            int    `json:"sms_limit_max" default:"0" name:"SMS cap" category:"SMS" desc:"Maximum confirmed sends per SMS contact when the cap is enabled" validate:"min=0"`
	TwilioAccountSID       string `json:"twilio_account_sid" name:"Twilio account SID" category:"SMS" desc:"Twilio API account SID"`
	TwilioAuthToken        string `json:"twilio_auth_token" name:"Twilio auth token" category:"SMS" desc:"Twilio API auth token"`
	TwilioFromNumber       string `json:"twilio_from_number" name:"Twilio from number" category:"SMS" desc:"Sender phone number in E.164 form"`
	TwilioVerifyServiceSID string `json:"twilio_verify_service_sid" name:"Twilio Verify service SID" category:"SMS" desc:"Verify service used for contact phone verification"`

	// Email
	EmailProvider  string `json:"email_provider" default:"smtp" name:"Email provider" category:"Email" desc:"Delivery mechanism: smtp or sendgrid"`
	EmailFrom      string `json:"email_from" name:"From address" category:"Email" desc:"Sender address for notification emails"`
	SendgridAPIKey string `json:"sendgrid_api_key" name:"SendGrid API key" category:"Email" desc:"API key for the SendGrid mail API"`
	EmailHost      string `json:"email_host" name:"SMTP host" category:"Email" desc:"SMTP server hostname"`
	EmailPort      int    `json:"email_port" default:"587" name:"SMTP port" category:"Email" desc:"SMTP server port" validate:"min=0"`
	EmailUser      string `json:"email_user" name:"SMTP user" category:"Email" desc:"SMTP login user"`
	EmailPassword  string `json:"email_password" name:"SMTP password" category:"Email" desc:"SMTP login password"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// AuthConfig represents admin API authentication configuration
type AuthConfig struct {
	Key string `json:"key"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}
