package rag

import "fmt"

const systemPrompt = `You are an assistant that answers questions using only the provided documents.

Rules:
1. Answer strictly from the content of the provided documents.
2. If the documents do not contain the answer, say "The requested information could not be found in the documents."
3. Structure the answer clearly; use lists or short sections where it helps.
4. Mention which document each part of the answer comes from.
5. Text marked "(image content)" was extracted from images with OCR and may contain recognition errors.`

func buildUserPrompt(question, context string) string {
	return fmt.Sprintf(`Answer the question using the documents below.

Documents:
%s

Question: %s

Answer:`, context, question)
}

// Messages shown to users when no answer could be generated.
const (
	msgNoDocuments      = "No documents are indexed yet. Index some documents first."
	msgNoResults        = "No relevant documents were found for this question."
	msgGenerationFailed = "An error occurred while generating the answer"
)
