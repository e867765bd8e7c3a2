package assistant

import (
	"fmt"
	"time"
)

const promptDateLayout = "January 02, 2006"

const contextPromptFormat = `You are a professional legal assistant helping college students understand their rights.
Explain everything calmly, clearly, and in simple terms.
The student does not know much about the law.
It is currently %s.

%s

Here is what the student said:
"""%s"""

Now respond with what they can and cannot do based on what you understood.
If you need more information to provide a complete answer, ask ONE clear follow-up question.
If you don't need more information, provide your complete answer without asking any questions.
`

// ContextPrompt builds the single prompt sent to the model for one exchange: the assistant's
// instructions, today's date, the flattened conversation so far and the student's latest words.
func ContextPrompt(userInput, conversationHistory string, today time.Time) string {
	return fmt.Sprintf(contextPromptFormat, today.Format(promptDateLayout), conversationHistory, userInput)
}
