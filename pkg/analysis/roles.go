package analysis

import (
	"fmt"

	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/providers"
)

// providerRole maps a memory role to the provider-agnostic role. The
// mapping is total over the known roles; anything else is an error.
//
//	instruction → system
//	input       → user
//	output      → assistant
func providerRole(role memory.Role) (string, error) {
	switch role {
	case memory.RoleInstruction:
		return providers.RoleSystem, nil
	case memory.RoleInput:
		return providers.RoleUser, nil
	case memory.RoleOutput:
		return providers.RoleAssistant, nil
	default:
		return "", fmt.Errorf("no provider role for memory role %q", role)
	}
}

// buildMessages assembles instruction, stored turns and the new input.
func buildMessages(instruction string, history []memory.Turn, input memory.Turn) ([]providers.Message, error) {
	turns := make([]memory.Turn, 0, len(history)+2)
	turns = append(turns, memory.Turn{Role: memory.RoleInstruction, Content: instruction})
	turns = append(turns, history...)
	turns = append(turns, input)

	msgs := make([]providers.Message, len(turns))
	for i, t := range turns {
		role, err := providerRole(t.Role)
		if err != nil {
			return nil, err
		}
		msgs[i] = providers.Message{Role: role, Content: t.Content}
	}
	return msgs, nil
}
