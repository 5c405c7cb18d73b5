// Package text implements the text content analyzer: basic statistics,
// key phrase extraction, lexicon sentiment, and heuristic language detection.
package text

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/sandeepmv/contentiq/pkg/models"
)

const (
	modelName = "heuristic-v1"
	// readingSpeedWPM is the assumed average reading speed.
	readingSpeedWPM = 200
	maxKeyPhrases   = 10
)

// Analyzer computes text statistics natively. It holds no mutable state and
// is safe for concurrent use.
type Analyzer struct{}

func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Kind() models.Kind { return models.KindText }

func (a *Analyzer) Capabilities() models.Capabilities {
	return models.Capabilities{
		Kind:         models.KindText,
		ContentTypes: []string{"text/plain", "text/markdown", "text/html", "application/json"},
		Features: []string{
			"basic_stats",
			"key_phrase_extraction",
			"sentiment_analysis",
			"language_detection",
		},
		Available: true,
		Model:     modelName,
	}
}

// Analyze computes statistics over the text. Recognized options:
// extract_key_phrases (default true), analyze_sentiment (default false),
// detect_language (default true).
func (a *Analyzer) Analyze(ctx context.Context, content []byte, opts models.Options) (models.ResultPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text provided for analysis", models.ErrAnalysisFailed)
	}

	words := tokenize(text)
	sentences := countSentences(text)

	result := models.ResultPayload{
		"char_count":           len(text),
		"word_count":           len(words),
		"sentence_count":       sentences,
		"avg_word_length":      avgWordLength(words),
		"avg_sentence_length":  avgSentenceLength(len(words), sentences),
		"vocab_size":           vocabSize(words),
		"reading_time_minutes": float64(len(words)) / readingSpeedWPM,
	}

	if opts.Bool("extract_key_phrases", true) {
		result["key_phrases"] = keyPhrases(words)
	}
	if opts.Bool("analyze_sentiment", false) {
		result["sentiment"] = sentiment(words)
	}
	if opts.Bool("detect_language", true) {
		result["language"] = detectLanguage(words)
	}

	return result, nil
}

// tokenize splits text into words, stripping surrounding punctuation.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func countSentences(text string) int {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	count := 0
	for _, seg := range segments {
		if strings.IndexFunc(seg, unicode.IsLetter) >= 0 || strings.IndexFunc(seg, unicode.IsNumber) >= 0 {
			count++
		}
	}
	return count
}

func avgWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	return float64(total) / float64(len(words))
}

func avgSentenceLength(wordCount, sentenceCount int) float64 {
	if sentenceCount == 0 {
		return 0
	}
	return float64(wordCount) / float64(sentenceCount)
}

func vocabSize(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return len(seen)
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true, "was": true,
	"were": true, "with": true,
}

type keyPhrase struct {
	Phrase     string  `json:"phrase"`
	Count      int     `json:"count"`
	Importance float64 `json:"importance"`
}

// keyPhrases extracts runs of two or more consecutive non-stopwords as
// candidate phrases, longest first. A crude stand-in for noun-chunk
// extraction; good enough for ranking repeated terminology.
func keyPhrases(words []string) []keyPhrase {
	counts := make(map[string]int)
	var order []string

	var run []string
	flush := func() {
		if len(run) >= 2 {
			phrase := strings.ToLower(strings.Join(run, " "))
			if _, seen := counts[phrase]; !seen {
				order = append(order, phrase)
			}
			counts[phrase]++
		}
		run = run[:0]
	}

	for _, w := range words {
		if stopwords[strings.ToLower(w)] {
			flush()
			continue
		}
		run = append(run, w)
	}
	flush()

	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i]) > len(order[j])
	})
	if len(order) > maxKeyPhrases {
		order = order[:maxKeyPhrases]
	}

	maxScore := 0.0
	scores := make(map[string]float64, len(order))
	for _, p := range order {
		s := float64(counts[p] * len(strings.Fields(p)))
		scores[p] = s
		if s > maxScore {
			maxScore = s
		}
	}

	phrases := make([]keyPhrase, 0, len(order))
	for _, p := range order {
		phrases = append(phrases, keyPhrase{
			Phrase:     p,
			Count:      counts[p],
			Importance: scores[p] / maxScore,
		})
	}
	return phrases
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "amazing": true, "wonderful": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "awful": true, "poor": true, "worst": true,
}

// sentiment scores the text against a small polarity lexicon.
func sentiment(words []string) map[string]float64 {
	if len(words) == 0 {
		return map[string]float64{"positive": 0, "negative": 0, "neutral": 1}
	}

	pos, neg := 0, 0
	for _, w := range words {
		lw := strings.ToLower(w)
		if positiveWords[lw] {
			pos++
		}
		if negativeWords[lw] {
			neg++
		}
	}

	total := float64(len(words))
	return map[string]float64{
		"positive": float64(pos) / total,
		"negative": float64(neg) / total,
		"neutral":  1 - float64(pos+neg)/total,
	}
}

var englishMarkers = map[string]bool{
	"the": true, "be": true, "to": true, "of": true, "and": true,
	"a": true, "in": true, "that": true, "have": true, "i": true,
}

var spanishMarkers = map[string]bool{
	"el": true, "la": true, "de": true, "que": true, "y": true,
	"a": true, "en": true, "un": true, "ser": true, "se": true,
}

// detectLanguage distinguishes English from Spanish by marker-word overlap,
// defaulting to English. A dedicated detection library would replace this
// for broader coverage.
func detectLanguage(words []string) string {
	enScore, esScore := 0, 0
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		lw := strings.ToLower(w)
		if seen[lw] {
			continue
		}
		seen[lw] = true
		if englishMarkers[lw] {
			enScore++
		}
		if spanishMarkers[lw] {
			esScore++
		}
	}

	switch {
	case enScore > esScore && enScore > 1:
		return "en"
	case esScore > enScore && esScore > 1:
		return "es"
	default:
		return "en"
	}
}
