package discovery

import (
	"fmt"
	"strings"

	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/media"
)

const systemDirective = "You are bAIng, an assistant that curates lists of titles and responds only with JSON."

const metaFields = `"baing_meta" (object with "reason": why it fits this user, "query": the guidance it answers, "streamers": where to watch it if known)`

// BuildInstruction composes the directive for one kind. The output depends
// only on its arguments.
func BuildInstruction(kind media.Kind, count int, guidance string, history History) llm.Instruction {
	c := contractFor(kind)

	var b strings.Builder
	fmt.Fprintf(&b, "Recommend exactly %d %s.\n", count, c.noun)
	fmt.Fprintf(&b, "Respond with a single JSON object whose only key is %q, an array of objects with the fields %s and %s.\n",
		c.field, c.fields, metaFields)

	if strings.TrimSpace(guidance) != "" {
		fmt.Fprintf(&b, "The user asked for: %s\n", guidance)
		b.WriteString("Follow that request before aiming for variety.\n")
	} else {
		b.WriteString("Aim for a varied selection.\n")
	}

	fmt.Fprintf(&b, "Titles they disliked: %s\n", history.Disliked())
	fmt.Fprintf(&b, "Titles they liked: %s\n", history.Liked())
	fmt.Fprintf(&b, "Titles they skipped: %s\n", history.Skipped())
	b.WriteString("Use these to infer their taste and never recommend any title listed above.\n")

	return llm.Instruction{System: systemDirective, User: b.String()}
}
