package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioTranscriber exports audioTranscriber for mocks.
type AudioTranscriber = audioTranscriber

// NewTestTranscriber creates an OpenAITranscriber over a mock client.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

// Function exports for unit testing internal logic.
var (
	ResultFromResponse = resultFromResponse
	ResponseFormat     = responseFormat
)
