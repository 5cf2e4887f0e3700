package config

// EngineConfig represents the engine tuning values
type EngineConfig struct {
	RulesWeight         float64
	HeadersWeight       float64
	ReputationWeight    float64
	BehaviorWeight      float64
	MLWeight            float64
	RuleSoftKnee        float64
	AuthFullPassBonus   float64
	TrustedSenderBonus  float64
	FirstContactPenalty float64
	TrustedThreshold    int
	MLConfidenceFloor   float64
	MaxReceivedHops     int
	Brands              []string
}

// MLConfig represents the configuration for the ML provider
type MLConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// TrustConfig represents the trust store configuration
type TrustConfig struct {
	StoreType          string
	SQLitePath         string
	WhitelistedDomains []string
}

// HistoryConfig represents the scan-history configuration
type HistoryConfig struct {
	Backend     string
	MySQLDSN    string
	PostgresDSN string
}

// GetEngine returns the engine configuration
func (c *Config) GetEngine() EngineConfig {
	return EngineConfig{
		RulesWeight:         c.GetFloat64("engine.weights.rules"),
		HeadersWeight:       c.GetFloat64("engine.weights.headers"),
		ReputationWeight:    c.GetFloat64("engine.weights.reputation"),
		BehaviorWeight:      c.GetFloat64("engine.weights.behavior"),
		MLWeight:            c.GetFloat64("engine.weights.ml"),
		RuleSoftKnee:        c.GetFloat64("engine.rule_soft_knee"),
		AuthFullPassBonus:   c.GetFloat64("engine.auth_full_pass_bonus"),
		TrustedSenderBonus:  c.GetFloat64("engine.trusted_sender_bonus"),
		FirstContactPenalty: c.GetFloat64("engine.first_contact_penalty"),
		TrustedThreshold:    c.GetInt("engine.trusted_threshold"),
		MLConfidenceFloor:   c.GetFloat64("engine.ml_confidence_floor"),
		MaxReceivedHops:     c.GetInt("engine.max_received_hops"),
		Brands:              c.GetStringSlice("engine.brands"),
	}
}

// GetML returns the ML provider configuration
func (c *Config) GetML() MLConfig {
	return MLConfig{
		Provider: c.GetString("ml.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetTrust returns the trust store configuration
func (c *Config) GetTrust() TrustConfig {
	return TrustConfig{
		StoreType:          c.GetString("trust.store_type"),
		SQLitePath:         c.GetString("trust.sqlite_path"),
		WhitelistedDomains: c.GetStringSlice("trust.whitelisted_domains"),
	}
}

// GetHistory returns the scan-history configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Backend:     c.GetString("history.backend"),
		MySQLDSN:    c.GetString("history.mysql_dsn"),
		PostgresDSN: c.GetString("history.postgres_dsn"),
	}
}
