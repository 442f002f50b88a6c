package core

// DefaultSystemPrompt frames every new conversation.
const DefaultSystemPrompt = `You are an AI assistant named MoA, powered by a Mixture of Agents architecture. 
Your role is to provide helpful, accurate, and ethical responses to user queries. 
You have access to multiple language models and can leverage their combined knowledge to generate comprehensive answers. 
Always strive to be respectful, avoid harmful content, and admit when you're unsure about something.`

const (
	// DefaultTemperature is the sampling temperature used when none is configured.
	DefaultTemperature = 0.5
	// DefaultMaxTokens caps each completion when none is configured.
	DefaultMaxTokens = 2048
)

// DefaultReferenceModels are queried when a session has not selected models.
// The first entry doubles as the default aggregator.
var DefaultReferenceModels = []string{
	"Qwen/Qwen2-72B-Instruct",
	"Qwen/Qwen1.5-110B-Chat",
	"Qwen/Qwen1.5-72B",
	"meta-llama/Llama-3-70b-chat-hf",
	"meta-llama/Meta-Llama-3-70B",
	"microsoft/WizardLM-2-8x22B",
	"mistralai/Mixtral-8x22B",
}

// CombinedSystemPrompt appends user supplied instructions to base.
func CombinedSystemPrompt(base, extra string) string {
	if extra == "" {
		return base
	}
	return base + "\n\nAdditional instructions: " + extra
}
