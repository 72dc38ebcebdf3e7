package constant

// ModelCatalog lists the selectable models per provider, keyed by model id.
// Ids are the ones the OpenAI-compatible gateway accepts.
var ModelCatalog = map[string]map[string]string{
	"OpenAI": {
		"gpt-4o":        "GPT-4o",
		"gpt-4o-mini":   "GPT-4o mini",
		"gpt-4-turbo":   "GPT-4 Turbo",
		"gpt-3.5-turbo": "GPT-3.5 Turbo",
	},
	"Anthropic": {
		"claude-3-5-sonnet-20240620": "Claude 3.5 Sonnet",
		"claude-3-haiku-20240307":    "Claude 3 Haiku",
		"claude-3-opus-20240229":     "Claude 3 Opus",
	},
	"Meta": {
		"meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo":  "Llama 3.1 8B Instruct Turbo",
		"meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo": "Llama 3.1 70B Instruct Turbo",
	},
	"Mistral AI": {
		"mistralai/Mistral-7B-Instruct-v0.2":   "Mistral 7B Instruct",
		"mistralai/Mixtral-8x7B-Instruct-v0.1": "Mixtral 8x7B Instruct",
	},
	"Google": {
		"gemini-1.5-flash": "Gemini 1.5 Flash",
		"gemini-1.5-pro":   "Gemini 1.5 Pro",
	},
}

// ConfiguredModelProvider groups a configured default model that the catalog does not list.
const ConfiguredModelProvider = "Configured"
