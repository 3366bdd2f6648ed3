// Package llm8850 implements llm.Client for the LLM-8850 M.2 accelerator
// service, which exposes an asynchronous reset / generate / poll HTTP API.
package llm8850
