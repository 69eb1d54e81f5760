package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-notetaker/internal/lang"
)

// MapReduce configuration for long transcripts.
const (
	// defaultChunkTokens leaves room for the prompt within defaultMaxInputTokens.
	defaultChunkTokens = 80000

	minChunksForMapReduce = 2
)

// transcriptChunk is a portion of a transcript processed in the map phase.
type transcriptChunk struct {
	index   int
	content string
	total   int
}

// splitTranscript divides transcript into chunks of at most maxTokens at line
// boundaries. A single line longer than maxTokens is kept whole.
// Returns nil when the transcript fits in one chunk.
func splitTranscript(transcript string, maxTokens int) []transcriptChunk {
	if estimateTokens(transcript) <= maxTokens {
		return nil
	}

	var (
		chunks  []transcriptChunk
		current strings.Builder
		tokens  int
	)
	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, transcriptChunk{index: len(chunks), content: c})
		}
		current.Reset()
		tokens = 0
	}

	for _, line := range strings.Split(transcript, "\n") {
		lineTokens := estimateTokens(line)
		if tokens+lineTokens > maxTokens && current.Len() > 0 {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
		tokens += lineTokens
	}
	flush()

	if len(chunks) < minChunksForMapReduce {
		return nil
	}
	for i := range chunks {
		chunks[i].total = len(chunks)
	}
	return chunks
}

// Prompts for the map and reduce phases.
const (
	mapChunkPromptPrefix = `IMPORTANT: This transcript has been split into multiple parts due to length.
You are processing part %d of %d.

%s

Process this part following the rules above. The final output will be merged with other parts.
If this is not part 1, continue the structure from where the previous part left off.
Do not add a main title (H1) unless this is part 1.`

	reducePrompt = `You receive multiple parts of a Markdown notes document.
Merge them into a single coherent document.

Rules:
- Keep only one H1 title (from the first part)
- Merge H2 sections that cover the same topic
- Eliminate exact duplicates only (same sentence repeated)
- Preserve all unique content, even if topics are similar
- Keep "Key Ideas", "Decisions", "Actions" sections at the end (merged if present in multiple parts)
- Keep markers for additions and corrections as they are
- Do not alter meaning, do not invent anything`
)

func buildMapPrompt(base string, chunk transcriptChunk) string {
	return fmt.Sprintf(mapChunkPromptPrefix, chunk.index+1, chunk.total, base)
}

// instructedSummarizer is a Summarizer that also accepts a raw system prompt,
// as needed by the map and reduce phases.
type instructedSummarizer interface {
	Summarizer
	SummarizeWithInstructions(ctx context.Context, content, prompt string) (string, error)
}

var (
	_ Summarizer           = (*MapReduceSummarizer)(nil)
	_ instructedSummarizer = (*OpenAISummarizer)(nil)
)

// MapReduceSummarizer handles transcripts too long for one request: it
// summarizes each part in order, then merges the partial notes.
// Short transcripts go straight to the wrapped summarizer.
type MapReduceSummarizer struct {
	inner       instructedSummarizer
	chunkTokens int
	onProgress  func(phase string, current, total int)
	log         zerolog.Logger
}

// MapReduceOption configures a MapReduceSummarizer.
type MapReduceOption func(*MapReduceSummarizer)

// WithChunkTokens sets the estimated token size of each part.
func WithChunkTokens(n int) MapReduceOption {
	return func(m *MapReduceSummarizer) {
		if n > 0 {
			m.chunkTokens = n
		}
	}
}

// WithProgress sets a callback invoked before each map step and the reduce step.
func WithProgress(fn func(phase string, current, total int)) MapReduceOption {
	return func(m *MapReduceSummarizer) { m.onProgress = fn }
}

// WithMapReduceLogger sets the logger.
func WithMapReduceLogger(l zerolog.Logger) MapReduceOption {
	return func(m *MapReduceSummarizer) { m.log = l }
}

// NewMapReduceSummarizer wraps s.
func NewMapReduceSummarizer(s *OpenAISummarizer, opts ...MapReduceOption) *MapReduceSummarizer {
	return newMapReduceSummarizer(s, opts...)
}

func newMapReduceSummarizer(s instructedSummarizer, opts ...MapReduceOption) *MapReduceSummarizer {
	m := &MapReduceSummarizer{
		inner:       s,
		chunkTokens: defaultChunkTokens,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Summarize returns notes for transcript, splitting it when it exceeds the
// chunk size. A failed part fails the whole call.
func (m *MapReduceSummarizer) Summarize(ctx context.Context, transcript string, opts Options) (string, error) {
	chunks := splitTranscript(transcript, m.chunkTokens)
	if chunks == nil {
		return m.inner.Summarize(ctx, transcript, opts)
	}

	m.log.Info().Int("parts", len(chunks)).Msg("transcript too long for one request, splitting")

	base := instructions(opts)
	partial := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		m.progress("map", i+1, len(chunks))

		out, err := m.inner.SummarizeWithInstructions(ctx, chunk.content, buildMapPrompt(base, chunk))
		if err != nil {
			return "", fmt.Errorf("failed to process part %d/%d: %w", i+1, len(chunks), err)
		}
		partial[i] = out
	}

	m.progress("reduce", 1, 1)
	merged, err := m.reduce(ctx, partial, opts.Language)
	if err != nil {
		return "", fmt.Errorf("failed to merge parts: %w", err)
	}
	return merged, nil
}

func (m *MapReduceSummarizer) reduce(ctx context.Context, parts []string, language lang.Language) (string, error) {
	var input strings.Builder
	for i, part := range parts {
		if i > 0 {
			input.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&input, "=== PART %d ===\n\n%s", i+1, part)
	}

	prompt := reducePrompt
	if !language.IsZero() && !language.IsEnglish() {
		prompt = fmt.Sprintf("Respond in %s.\n\n%s", language.DisplayName(), prompt)
	}
	return m.inner.SummarizeWithInstructions(ctx, input.String(), prompt)
}

func (m *MapReduceSummarizer) progress(phase string, current, total int) {
	if m.onProgress != nil {
		m.onProgress(phase, current, total)
	}
	m.log.Debug().Str("phase", phase).Int("current", current).Int("total", total).Msg("notes progress")
}
