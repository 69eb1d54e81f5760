package notes

// ChatCompleter exports chatCompleter for mocks.
type ChatCompleter = chatCompleter

// NewTestSummarizer creates an OpenAISummarizer over a mock client.
func NewTestSummarizer(client chatCompleter, opts ...Option) *OpenAISummarizer {
	return newOpenAISummarizer(client, opts...)
}

// Instructions exports instructions for testing.
var Instructions = instructions

// InstructedSummarizer exports instructedSummarizer for mocks.
type InstructedSummarizer = instructedSummarizer

// NewTestMapReduceSummarizer creates a MapReduceSummarizer over any instructedSummarizer.
func NewTestMapReduceSummarizer(s instructedSummarizer, opts ...MapReduceOption) *MapReduceSummarizer {
	return newMapReduceSummarizer(s, opts...)
}

// SplitTranscript exposes the chunk contents of splitTranscript.
func SplitTranscript(transcript string, maxTokens int) []string {
	chunks := splitTranscript(transcript, maxTokens)
	if chunks == nil {
		return nil
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.content
	}
	return out
}
