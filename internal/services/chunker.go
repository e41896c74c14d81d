package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Chunks break on word boundaries, hold at
// most maxChunkSize runes unless a single word is longer, and repeat up to
// overlap runes of trailing words from the previous chunk.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	size := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if len(current) > 0 && size+1+wordLen > maxChunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = tailWords(current, overlap)
			size = joinedLen(current)
			if len(current) > 0 && size+1+wordLen > maxChunkSize {
				current, size = nil, 0
			}
		}

		if len(current) > 0 {
			size++
		}
		current = append(current, word)
		size += wordLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// tailWords returns the trailing words whose joined length fits within n runes.
func tailWords(words []string, n int) []string {
	if n <= 0 {
		return nil
	}

	size := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		next := size + utf8.RuneCountInString(words[i])
		if start < len(words) {
			next++
		}
		if next > n {
			break
		}
		size = next
		start = i
	}

	// Never carry the whole chunk over, or the next chunk cannot make progress.
	if start == 0 {
		start = 1
	}
	if start >= len(words) {
		return nil
	}
	return append([]string(nil), words[start:]...)
}

func joinedLen(words []string) int {
	if len(words) == 0 {
		return 0
	}
	size := len(words) - 1
	for _, w := range words {
		size += utf8.RuneCountInString(w)
	}
	return size
}
