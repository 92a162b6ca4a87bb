package engine

import (
	"fmt"
	"strings"
)

// Dumb-mode grammar. When no corpus has been ingested the engine assembles
// sentences from these fixed lists instead of the frequency tables. The
// output ignores temperature entirely.
var (
	dumbTemplates = []string{
		"%s the %s %s %s.",
		"%s a %s %s %s.",
		"%s every %s %s %s.",
	}

	dumbOpeners = []string{"Once", "Meanwhile", "Somewhere", "Yesterday", "Eventually"}
	dumbNouns   = []string{"reader", "library", "notebook", "story", "sentence", "writer"}
	dumbVerbs   = []string{"waits", "wanders", "rests", "appears", "returns"}
	dumbTails   = []string{"quietly", "without a sound", "as always", "for a while"}
)

// dumbText assembles template-only output for an untrained model. The seed
// text, if any, is echoed ahead of the templated sentences.
func dumbText(s *Sampler, seedText string, maxTokens int) string {
	sentences := 1 + maxTokens/16
	if sentences > 3 {
		sentences = 3
	}
	var parts []string
	if trimmed := strings.TrimSpace(seedText); trimmed != "" {
		parts = append(parts, trimmed)
	}
	for i := 0; i < sentences; i++ {
		parts = append(parts, fillTemplate(s))
	}
	return strings.Join(parts, " ")
}

func fillTemplate(s *Sampler) string {
	tpl := dumbTemplates[s.Intn(len(dumbTemplates))]
	return fmt.Sprintf(tpl,
		dumbOpeners[s.Intn(len(dumbOpeners))],
		dumbNouns[s.Intn(len(dumbNouns))],
		dumbVerbs[s.Intn(len(dumbVerbs))],
		dumbTails[s.Intn(len(dumbTails))])
}
