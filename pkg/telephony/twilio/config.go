package twilio

// Config carries the Twilio account and the public surface of the gateway's
// telephony endpoints.
type Config struct {
	AccountSID    string `mapstructure:"account_sid"`
	AuthToken     string `mapstructure:"auth_token"`
	FromNumber    string `mapstructure:"from_number"`
	ServerAddr    string `mapstructure:"server_addr"`
	PublicURL     string `mapstructure:"public_url"`
	VoicePath     string `mapstructure:"voice_path"`
	StreamPath    string `mapstructure:"stream_path"`
	VoiceGreeting string `mapstructure:"voice_greeting"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.VoicePath == "" {
		c.VoicePath = "/voice"
	}
	if c.StreamPath == "" {
		c.StreamPath = "/media"
	}
	return c
}

func (c Config) voiceWebhookURL() string {
	if c.PublicURL != "" {
		return "https://" + normalizePublicURL(c.PublicURL) + c.VoicePath
	}
	addr := c.ServerAddr
	if addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + c.VoicePath
}

func normalizePublicURL(v string) string {
	if v == "" {
		return ""
	}
	if len(v) >= 8 && v[:8] == "https://" {
		v = v[8:]
	}
	if len(v) >= 7 && v[:7] == "http://" {
		v = v[7:]
	}
	for len(v) > 0 && v[len(v)-1] == '/' {
		v = v[:len(v)-1]
	}
	return v
}
