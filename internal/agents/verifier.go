package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/providers/llm"
)

const verifierSystemPrompt = `You are a verifier. Judge whether the last action completed the subtask: %q
The executor was: %s

Return exactly one decision word, then a colon, then one short reason sentence.
Decision words:
- success   (the subtask is done)
- retry     (the attempt failed but the same executor should try again)
- escalate  (no tool can do this, hand off to code generation)
- user      (you cannot tell, a human must confirm)
- failure   (the subtask cannot be completed at all)

Example: "retry: the tool reported that the file does not exist"`

// Verifier judges whether the last action satisfied the current subtask.
// Output is normalized against the fixed verdict vocabulary; anything
// unmatched or empty defaults to user confirmation, never to a silent
// success or failure.
type Verifier struct {
	Client llm.Client
	Log    *zap.Logger
}

// Verify requests one verdict word plus one reason sentence over a bounded
// window of recent turns. A completion failure becomes a retry verdict so a
// stalled external call consumes an attempt instead of hanging the loop; the
// error is returned alongside so the caller can tell provider outages apart
// from genuine retries.
func (v *Verifier) Verify(ctx context.Context, sub *models.Subtask, kind models.ExecutorKind, window []models.Turn, userContext string) (models.Verdict, string, error) {
	system := fmt.Sprintf(verifierSystemPrompt, sub.Description, kind)
	if userContext != "" {
		window = append(append([]models.Turn{}, window...),
			models.UserTurn("User context: "+userContext))
	}
	resp, err := v.Client.Complete(ctx, system, window)
	if err != nil {
		v.log().Warn("verifier completion failed, counting as failed attempt", zap.Error(err))
		return models.VerdictRetry, "verifier unavailable: " + err.Error(), err
	}
	verdict, reason := parseVerdict(resp)
	if verdict == "" {
		v.log().Info("verifier output unrecognized, deferring to user",
			zap.String("raw", truncate(resp, 200)))
		return models.VerdictUserVerifier, "verifier output was not recognized", nil
	}
	return verdict, reason, nil
}

// HumanVerdict maps a prior direct human decision onto the verdict
// vocabulary, short-circuiting the completion service entirely.
func HumanVerdict(decision string) (models.Verdict, string, bool) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "yes":
		return models.VerdictSuccess, "confirmed by user", true
	case "no":
		return models.VerdictRetry, "rejected by user", true
	case "abort":
		return models.VerdictFailure, "stopped at user's request", true
	default:
		return "", "", false
	}
}

// verdictWords maps normalized decision words, including the legacy
// retry_tool/fallback_coder dialect, onto the canonical vocabulary.
var verdictWords = map[string]models.Verdict{
	"success":        models.VerdictSuccess,
	"retry":          models.VerdictRetry,
	"retry_tool":     models.VerdictRetry,
	"escalate":       models.VerdictEscalate,
	"fallback_coder": models.VerdictEscalate,
	"user":           models.VerdictUserVerifier,
	"user_verifier":  models.VerdictUserVerifier,
	"failure":        models.VerdictFailure,
}

func parseVerdict(raw string) (models.Verdict, string) {
	text := strings.TrimSpace(stripCodeFences(raw))
	if text == "" {
		return "", ""
	}
	word := text
	reason := ""
	for _, sep := range []string{":", "-", "\n", " "} {
		if idx := strings.Index(text, sep); idx > 0 {
			word = text[:idx]
			reason = strings.TrimSpace(text[idx+len(sep):])
			break
		}
	}
	word = strings.ToLower(strings.Trim(word, " .,!\"'`"))
	if v, ok := verdictWords[word]; ok {
		return v, reason
	}
	// mixed prose; only a whole vocabulary token counts, so words that
	// merely contain one ("unsuccessful", "failed") stay unrecognized and
	// defer to the user instead of faking a verdict
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r == '_' || 'a' <= r && r <= 'z')
	}) {
		if v, ok := verdictWords[tok]; ok {
			return v, strings.TrimSpace(text)
		}
	}
	return "", ""
}

func (v *Verifier) log() *zap.Logger {
	if v.Log != nil {
		return v.Log
	}
	return zap.NewNop()
}
