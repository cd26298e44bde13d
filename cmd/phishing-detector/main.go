package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/mikey/llm-phishing-filter/internal/config"
	"github.com/mikey/llm-phishing-filter/internal/core"
	"github.com/mikey/llm-phishing-filter/internal/factory"
	"github.com/mikey/llm-phishing-filter/internal/logging"
	"github.com/mikey/llm-phishing-filter/internal/whitelist"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, bedrock, gemini)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum email body size to send to LLM")
	llmTimeout  = flag.Duration("llm-timeout", 30*time.Second, "Timeout for the LLM request")

	// OpenAI flags
	openaiAPIKey     = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName  = flag.String("openai-model", "gpt-4", "OpenAI model name")
	openaiHTTPProxy  = flag.String("openai-http-proxy", "", "HTTP proxy URL for OpenAI requests")
	openaiHTTPSProxy = flag.String("openai-https-proxy", "", "HTTPS proxy URL for OpenAI requests")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// Scoring flags
	ruleWeight       = flag.Float64("rule-weight", 0.3, "Weight of the rule-based score in the blend")
	aiWeight         = flag.Float64("ai-weight", 0.7, "Weight of the AI score in the blend")
	threshold        = flag.Float64("threshold", 0.7, "Combined risk threshold for flagging phishing")
	whitelistDomains = flag.String("whitelist", "", "Comma-separated list of whitelisted domains")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	sample     = flag.Bool("sample", false, "Analyze the built-in sample email instead of reading input")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

const sampleEmail = `Dear User,

We've noticed unusual activity in your account. Please verify your identity
immediately by clicking the link below and entering your login credentials.

If you don't act within 24 hours, your account will be suspended.

Best regards,
Security Team
`

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Initialize LLM client
	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	llmClient, err := factory.NewLLMFactory(cfg, logger, textProcessor).CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// Parse whitelisted domains
	var whitelistedDomains []string
	if *whitelistDomains != "" {
		whitelistedDomains = strings.Split(*whitelistDomains, ",")
		for i, domain := range whitelistedDomains {
			whitelistedDomains[i] = strings.TrimSpace(domain)
		}
	} else {
		whitelistedDomains = cfg.GetStringSlice("phishing.whitelisted_domains")
	}

	if len(whitelistedDomains) > 0 {
		logger.Info("Using whitelisted domains", zap.Strings("domains", whitelistedDomains))
	}

	// Create whitelist checker
	whitelistChecker := whitelist.NewChecker(whitelistedDomains, logger)

	// Read the email to analyze
	email, err := readEmail(logger)
	if err != nil {
		logger.Fatal("Failed to read email", zap.Error(err))
	}

	// Build the scorer; the one-shot CLI run has no use for a cache
	opts, err := factory.BuildScoringOptions(cfg)
	if err != nil {
		logger.Fatal("Failed to build scoring options", zap.Error(err))
	}
	opts.CacheEnabled = false
	opts.WhitelistedDomains = whitelistedDomains

	service := core.NewPhishingScorerService(llmClient, nil, factory.BuildRuleEngine(cfg), logger, opts)

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", strings.Join(email.To, ", "))
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))
	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))
	fmt.Printf("Blend weights: %.2f rule / %.2f AI\n", opts.RuleWeight, opts.AIWeight)
	fmt.Printf("Phishing threshold: %.2f\n", opts.Threshold)

	startTime := time.Now()

	if whitelistChecker.IsWhitelisted(email.From) {
		fmt.Printf("\n=== Results ===\n")
		fmt.Printf("Sender domain is whitelisted, skipping analysis\n")
		fmt.Printf("Combined risk score: 0.0\n")
		fmt.Printf("Processing time: %v\n", time.Since(startTime))
		return
	}

	result := service.AnalyzeEmail(context.Background(), email)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Rule-based score: %.4f\n", result.RuleBasedScore)
	fmt.Printf("AI analysis score: %.4f\n", result.AIAnalysis.RiskScore)
	fmt.Printf("Combined risk score: %.4f\n", result.CombinedRisk)
	fmt.Printf("Is phishing: %t\n", service.IsPhishing(result))
	fmt.Printf("Confidence: %.4f\n", result.AIAnalysis.Analysis.Confidence)
	fmt.Printf("Model used: %s\n", result.AIAnalysis.Analysis.ModelVersion)
	fmt.Printf("Processing time: %v\n", duration)

	fmt.Printf("\n=== Detailed AI Analysis ===\n")
	printList("Threat indicators", result.AIAnalysis.DetailedThreats.Indicators)
	printList("Reasoning", result.AIAnalysis.DetailedThreats.Reasoning)
	printList("Recommended actions", result.AIAnalysis.DetailedThreats.Actions)

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

func printList(title string, items []string) {
	fmt.Printf("%s:\n", title)
	if len(items) == 0 {
		fmt.Printf("  (none)\n")
		return
	}
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

// readEmail reads the email to analyze from the sample, a file or stdin
func readEmail(logger *zap.Logger) (*core.Email, error) {
	if *sample {
		logger.Info("Using built-in sample email")
		return &core.Email{
			From:    "security@example.com",
			Subject: "Unusual activity in your account",
			Body:    sampleEmail,
			Headers: make(map[string][]string),
		}, nil
	}

	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", *inputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	email := &core.Email{
		From:    msg.Header.Get("From"),
		To:      strings.Split(msg.Header.Get("To"), ","),
		Subject: msg.Header.Get("Subject"),
		Body:    string(bodyBytes),
		Headers: make(map[string][]string),
	}
	for k, v := range msg.Header {
		email.Headers[k] = v
	}

	return email, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)
	v.Set("llm.request_timeout", llmTimeout.String())

	// Set provider-specific configuration
	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
		v.Set("openai.max_body_size", *maxBodySize)
		v.Set("openai.http_proxy", *openaiHTTPProxy)
		v.Set("openai.https_proxy", *openaiHTTPSProxy)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
		v.Set("bedrock.max_body_size", *maxBodySize)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
		v.Set("gemini.max_body_size", *maxBodySize)
	}

	// Set scoring configuration
	v.Set("scoring.rule_weight", *ruleWeight)
	v.Set("scoring.ai_weight", *aiWeight)
	v.Set("scoring.threshold", *threshold)

	// Set whitelisted domains
	if *whitelistDomains != "" {
		domains := strings.Split(*whitelistDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("phishing.whitelisted_domains", domains)
	} else {
		v.Set("phishing.whitelisted_domains", []string{})
	}

	return config.NewFromViper(v)
}
