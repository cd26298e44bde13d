package openai

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/mikey/llm-phishing-filter/internal/config"
	"github.com/mikey/llm-phishing-filter/internal/core"
	"github.com/mikey/llm-phishing-filter/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new OpenAIClient
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientConfig := openai.DefaultConfig(openaiCfg.APIKey)

	httpClient, err := buildHTTPClient(openaiCfg.HTTPProxy, openaiCfg.HTTPSProxy)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		f.logger.Info("Using proxied HTTP transport for OpenAI",
			zap.String("http_proxy", openaiCfg.HTTPProxy),
			zap.String("https_proxy", openaiCfg.HTTPSProxy))
		clientConfig.HTTPClient = httpClient
	}

	client := openai.NewClientWithConfig(clientConfig)

	return NewOpenAIClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

// buildHTTPClient builds an HTTP client routing requests through the
// configured proxies. Returns nil when no proxy is configured so the SDK
// default transport is kept.
func buildHTTPClient(httpProxy, httpsProxy string) (*http.Client, error) {
	if httpProxy == "" && httpsProxy == "" {
		return nil, nil
	}

	var httpURL, httpsURL *url.URL
	var err error
	if httpProxy != "" {
		if httpURL, err = url.Parse(httpProxy); err != nil {
			return nil, fmt.Errorf("invalid http proxy URL: %w", err)
		}
	}
	if httpsProxy != "" {
		if httpsURL, err = url.Parse(httpsProxy); err != nil {
			return nil, fmt.Errorf("invalid https proxy URL: %w", err)
		}
	}

	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && httpsURL != nil {
				return httpsURL, nil
			}
			if httpURL != nil {
				return httpURL, nil
			}
			return httpsURL, nil
		},
	}

	return &http.Client{Transport: transport}, nil
}
