package services

import (
	"fmt"
	"strings"
)

// sentimentMarker separates the visible reply from the machine-readable
// sentiment block the provider is instructed to append.
const sentimentMarker = "SENTIMENT_DATA:"

func joinSnippets(snippets []Snippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		lines = append(lines, fmt.Sprintf("Source: %s\nContent: %s", s.Source, s.Content))
	}
	return strings.Join(lines, "\n")
}

// buildJournalSystemPrompt frames the reply generation: grounded on the
// retrieved snippets, empathetic, citing sources by name, with the trailing
// structured sentiment block.
func buildJournalSystemPrompt(snippets []Snippet) string {
	return "You are an AI mental health guide. Use the following clinical research to guide the user:\n" +
		joinSnippets(snippets) + "\n\n" +
		"Do not give physical medical advice. Be empathetic, non-judgmental, and supportive. " +
		"IMPORTANT: When referencing research, mention the specific source (e.g., 'According to the Harvard Study...'). " +
		"\n\nCRITICAL: At the very end of your response, provide a JSON-formatted block for sentiment analysis like this: " +
		sentimentMarker + ` {"emotion": "string", "intensity": float_1_to_10, "triggers": "1-2 words only, comma separated"}`
}

func buildPredictionPrompt(history []string) string {
	return "You are a clinical predictive assistant. Based on the following user sentiment history:\n\n" +
		strings.Join(history, "\n") + "\n\n" +
		"1. Predict the user's emotional trajectory for the next 3 days with a concise clinical rationale (max 60 words).\n" +
		"2. Provide 3 specific, actionable clinical advice bullet points for the user to maintain or improve their wellbeing based on their patterns.\n\n" +
		"Format your response EXACTLY as a JSON object with this structure:\n" +
		`{"prediction": "...", "advice": ["...", "...", "..."]}`
}

func buildSuggestedPromptsPrompt(recentContents []string) string {
	return "You are a clinical journaling assistant. Below are a user's recent journal entries:\n\n" +
		strings.Join(recentContents, "\n---\n") + "\n\n" +
		"Based on these 'answers', generate 3 highly personalized 'Suggested Focus' items. " +
		"For each item, provide:\n" +
		"1. A focus question (under 15 words)\n" +
		"2. A 'starter' sentence that helps them begin writing (e.g., 'Looking back at that moment, I realize...')\n\n" +
		"Format: Return a JSON list of objects with keys 'prompt' and 'starter'. No other text."
}

func buildDeepDivePrompt(topic string, snippets []Snippet) string {
	return "You are a clinical research synthesist. A user is asking for a deep dive into the following topic: " +
		fmt.Sprintf("'%s'.\n\n", topic) +
		"Use the following academic research chunks to provide a detailed, structured, and informative analysis:\n" +
		joinSnippets(snippets) + "\n\n" +
		"Structure your response with:\n" +
		"1. Overview of the topic\n" +
		"2. Key Clinical Findings (cite sources)\n" +
		"3. Practical Applications (if applicable)\n" +
		"4. Limitations/Further Research\n\n" +
		"Maintain a high academic tone but remain accessible. Do not provide medical diagnoses."
}

// stripMarkdownFences removes a wrapping ```json ... ``` fence some models
// add around structured output.
func stripMarkdownFences(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.ReplaceAll(trimmed, "```json", "")
	trimmed = strings.ReplaceAll(trimmed, "```", "")
	return strings.TrimSpace(trimmed)
}
