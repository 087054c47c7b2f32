package analysis

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// DefaultInstructionTemplate is the built-in system instruction. It is
// rendered with InstructionData.
const DefaultInstructionTemplate = `You analyze conversations between an operator and a counterpart.
Your answer must follow exactly these numbered sections:
1. Message count
2. Conversation duration (dates and times)
3. Operator promises (for each: the text, whether it was fulfilled, the confirmation or the reason it was not)
4. Ignored counterpart questions or requests
5. Negative moments (mistakes, complaints, low initiative)
6. Operator statistics:
   - Number of replies
   - Response speed rating
   - Number of missed messages
   - Number of dialogs initiated by the operator
7. Short summary
8. Recommendations for improvement
If some data is missing from the conversation, analyze it and say so in the matching section.
Answer only with these sections, in {{.Language}}, without extra explanations or JSON formatting.`

// InstructionData is the data available to instruction templates.
type InstructionData struct {
	// Language is the language the report must be written in.
	Language string
}

// RenderInstruction renders an instruction template.
func RenderInstruction(tmpl string, data InstructionData) (string, error) {
	t, err := template.New("instruction").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse instruction template: %w", err)
	}

	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render instruction template: %w", err)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("instruction is empty")
	}
	return out, nil
}

// LoadInstruction renders the template in path, or the built-in template
// when path is empty.
func LoadInstruction(path string, data InstructionData) (string, error) {
	if path == "" {
		return RenderInstruction(DefaultInstructionTemplate, data)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read instruction file: %w", err)
	}
	return RenderInstruction(string(raw), data)
}
