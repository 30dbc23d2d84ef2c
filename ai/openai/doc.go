// Package openai implements the query enhancer using OpenAI-compatible APIs.
//
// It uses the langchaingo library to talk to OpenAI or compatible services
// such as Ollama, LocalAI, or vLLM. The model is asked for a JSON object in
// JSON mode at temperature zero, and the response is repaired for common
// formatting slips before decoding.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithModel("qwen2.5:3b"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	partial, err := provider.Enhancer().Enhance(ctx, "stuff due next week", []string{"en"}, config.Timeout)
package openai
