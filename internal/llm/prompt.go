package llm

import "strings"

// systemPrompt instructs the model to stay grounded in the supplied context.
const systemPrompt = "You are a helpful assistant that answers questions based on provided context. " +
	"Always cite the context when answering."

// basePrompt is the user-message template. {context} and {query} are
// substituted by BuildPrompt.
const basePrompt = `Based on the following context items, please answer the query.
Give yourself room to think by extracting relevant passages from the context before answering the query.
Don't return the thinking, only return the answer.
Make sure your answers are as explanatory as possible.

Now use the following context items to answer the user query:
{context}

Relevant passages: <extract relevant passages from the context here>
User query: {query}
Answer:`

// BuildPrompt renders the user message for one query.
func BuildPrompt(query, contextText string) string {
	prompt := strings.ReplaceAll(basePrompt, "{context}", contextText)
	return strings.ReplaceAll(prompt, "{query}", query)
}
