// Package openaicompat provides the chat client for OpenAI-compatible
// Chat Completions endpoints.
//
// The same client serves the cloud OpenAI API (Bearer auth, retries on
// 408/429/5xx) and a local llama.cpp llama-server (no auth, no retries,
// a friendly message when the server is not running):
//
//	p := openaicompat.New(openaicompat.Config{
//	    Label:   "OpenAI API",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    BaseURL: "https://api.openai.com/v1",
//	    Model:   "gpt-4o-mini",
//	    Retry:   retry.DefaultRetryPolicy(),
//	}, logger)
//	text, err := p.Generate(ctx, []llm.Message{llm.User("hi")})
package openaicompat
