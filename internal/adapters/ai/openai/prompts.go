package openai

// Prompts for the chat-backed capabilities. All of them constrain the model
// to the evidence it is given: the normalizer may not add or remove
// symptoms, and the explainer may not introduce facts or assign risk.

const normalizePrompt = "Rewrite the following text in concise, clear UK English, " +
	"focusing only on breast symptoms. Do not add or remove symptoms. " +
	"Do not assign risk or diagnosis. Reply with the rewritten text only."

const classifyPrompt = "You rate the urgency of breast symptom descriptions. " +
	"Given the user's text, respond with a JSON object of the form " +
	`{"high": h, "medium": m, "low": l}` + " where h, m and l are " +
	"probabilities that the description indicates a HIGH, MEDIUM or LOW " +
	"level of breast symptom urgency. The three values must sum to 1. " +
	"Respond with the JSON object only."

const explainPrompt = "Explain for a layperson in UK English, in 1-2 short sentences, " +
	"why the advice level was shown. Use only the evidence provided. " +
	"Do not add new symptoms or diagnoses. Do not assign risk yourself."
