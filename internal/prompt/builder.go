package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/altarworks/emmaus/internal/types"
)

// BuildInstruction renders the agent instruction for a character. The
// {MemoryContext} and {Now} placeholders are left intact for the session
// runtime to fill per turn.
func BuildInstruction(character *types.Character) (string, error) {
	if character == nil {
		return "", fmt.Errorf("character is required")
	}

	exampleDialogue := strings.TrimSpace(character.ExampleDialogue)
	if exampleDialogue != "" {
		exampleDialogue = replaceVars(exampleDialogue, character.Name, "user")
	}

	data := struct {
		Character       *types.Character
		KeyScriptures   string
		ExampleDialogue string
	}{
		Character:       character,
		KeyScriptures:   strings.Join(character.KeyScriptures, ", "),
		ExampleDialogue: exampleDialogue,
	}

	var buf bytes.Buffer
	if err := instructionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build instruction: %w", err)
	}
	return buf.String(), nil
}
