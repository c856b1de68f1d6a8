package chat

// DefaultRoster returns the stock participants offered when creating a new
// conversation. All four are free-tier models.
func DefaultRoster() []Participant {
	return []Participant{
		{
			ID:          "mistral-medium",
			DisplayName: "Mistral Medium",
			Provider:    ProviderMistral,
			Model:       "mistral-medium",
			IsAvailable: true,
		},
		{
			ID:          "cohere-command-r-plus",
			DisplayName: "Command R+",
			Provider:    ProviderCohere,
			Model:       "command-r-plus",
			IsAvailable: true,
		},
		{
			ID:          "HuggingFaceH4/zephyr-7b-beta",
			DisplayName: "Zephyr 7B Beta",
			Provider:    ProviderHuggingFace,
			Model:       "HuggingFaceH4/zephyr-7b-beta",
			IsAvailable: true,
		},
		{
			ID:          "gemini-flash",
			DisplayName: "Gemini Flash",
			Provider:    ProviderGoogle,
			Model:       "gemini-2.0-flash",
			IsAvailable: true,
		},
	}
}

// ProviderModels returns the known model names for a provider.
func ProviderModels(kind ProviderKind) []string {
	switch kind {
	case ProviderGoogle:
		return []string{
			"gemini-2.0-flash",
			"gemini-1.5-pro",
			"gemini-1.5-flash",
		}
	case ProviderMistral:
		return []string{
			"mistral-tiny",
			"mistral-small",
			"mistral-medium",
		}
	case ProviderCohere:
		return []string{
			"command",
			"command-light",
			"command-r",
			"command-r-plus",
		}
	case ProviderHuggingFace:
		return []string{
			"HuggingFaceH4/zephyr-7b-beta",
			"mistralai/Mistral-7B-Instruct-v0.2",
			"tiiuae/falcon-7b-instruct",
		}
	case ProviderLocal:
		return []string{
			"llama3",
			"mistral",
			"codellama",
		}
	default:
		return []string{}
	}
}

// DefaultModel returns the model used when a participant or relay request
// does not name one.
func DefaultModel(kind ProviderKind) string {
	switch kind {
	case ProviderGoogle:
		return "gemini-2.0-flash"
	case ProviderMistral:
		return "mistral-tiny"
	case ProviderCohere:
		return "command-r"
	case ProviderHuggingFace:
		return "HuggingFaceH4/zephyr-7b-beta"
	case ProviderLocal:
		return "llama3"
	default:
		return ""
	}
}
