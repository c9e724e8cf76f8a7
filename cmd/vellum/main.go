// Vellum is a resilient multi-provider completion client.
//
// It routes completion requests to OpenAI, DeepSeek, Groq, Gemini, or a
// local Ollama daemon based on the model identifier, retries transient
// failures with jittered exponential backoff, and streams partial output
// as it arrives.
//
// Usage:
//
//	# One-shot completion with the configured default model
//	vellum complete "Improve this paragraph: ..."
//
//	# Stream a completion from a specific model
//	vellum complete --stream --model deepseek-chat "Summarize ..."
//
//	# Analyze an image with a vision-capable model
//	vellum analyze --image chart.png --prompt "What does this chart show?"
//
//	# Probe every configured backend
//	vellum providers --check
//
//	# Validate the configuration file
//	vellum validate
package main

func main() {
	Execute()
}
