package services

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	defaultEmotion   = "Neutral"
	defaultIntensity = 5.0
	defaultTriggers  = "Unknown"
)

// ExtractedSentiment is the best-effort structured reading of a raw
// generation result. Fallback reports whether defaults were substituted; it
// is diagnostic only and never surfaced as an error.
type ExtractedSentiment struct {
	VisibleText string
	Emotion     string
	Intensity   float64
	Triggers    string
	Fallback    bool
}

// ExtractSentiment splits a raw generation text into the user-visible reply
// and the structured sentiment block the prompt asks the model to append.
//
// The payload is located as the first balanced JSON object after the marker,
// so nested braces and escaped quotes inside the block do not swallow any
// trailing prose. Extraction fails open: a missing or malformed block yields
// the input unmodified plus documented defaults, never an error. Intensity is
// accepted as-is, including values outside 1-10.
func ExtractSentiment(raw string) ExtractedSentiment {
	fallback := ExtractedSentiment{
		VisibleText: raw,
		Emotion:     defaultEmotion,
		Intensity:   defaultIntensity,
		Triggers:    defaultTriggers,
		Fallback:    true,
	}

	markerIdx := strings.Index(raw, sentimentMarker)
	if markerIdx < 0 {
		return fallback
	}

	payload, ok := firstBalancedObject(raw[markerIdx+len(sentimentMarker):])
	if !ok {
		return fallback
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return fallback
	}

	out := ExtractedSentiment{
		VisibleText: strings.TrimSpace(raw[:markerIdx]),
		Emotion:     defaultEmotion,
		Intensity:   defaultIntensity,
		Triggers:    defaultTriggers,
	}
	if emotion, ok := decoded["emotion"].(string); ok && strings.TrimSpace(emotion) != "" {
		out.Emotion = emotion
	}
	if intensity, ok := coerceFloat(decoded["intensity"]); ok {
		out.Intensity = intensity
	}
	if triggers, ok := decoded["triggers"].(string); ok && strings.TrimSpace(triggers) != "" {
		out.Triggers = triggers
	}
	return out
}

// firstBalancedObject scans for the first '{' and returns the substring up to
// its matching '}', tracking string literals and escapes so braces inside
// quoted values do not affect the depth count.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
