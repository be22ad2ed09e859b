package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the system prompt for grounded answer
	// generation. It instructs the model to cite context blocks with
	// bracketed reference markers, one per claim.
	PromptAnswerSystem = "answer_system"

	// PromptProfileExtract asks the model for a strict-JSON candidate
	// profile. The template expects a %s placeholder for the resume text.
	PromptProfileExtract = "profile_extract"
)
