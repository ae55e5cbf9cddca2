package rag

import (
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
)

const DefaultTopK = 3

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Ranker selects the chunks most relevant to a query.
type Ranker interface {
	Rank(query string, chunks []string, topK int) []string
}

// TFIDFRanker scores chunks by cosine similarity of smoothed TF-IDF vectors
// built over the chunks and the query together.
type TFIDFRanker struct {
	stopWords map[string]struct{}
}

func NewTFIDFRanker() *TFIDFRanker {
	return &TFIDFRanker{stopWords: englishStopWords}
}

func (r *TFIDFRanker) Rank(query string, chunks []string, topK int) []string {
	if len(chunks) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > len(chunks) {
		topK = len(chunks)
	}

	docs := make([]map[string]int, 0, len(chunks)+1)
	for _, c := range chunks {
		docs = append(docs, r.termCounts(c))
	}
	docs = append(docs, r.termCounts(query))

	idf := inverseDocFrequency(docs)
	if len(idf) == 0 {
		log.Printf("tfidf ranker: empty vocabulary, falling back to first %d chunks", topK)
		return append([]string(nil), chunks[:topK]...)
	}

	vectors := make([]map[string]float64, len(docs))
	for i, d := range docs {
		vectors[i] = weigh(d, idf)
	}
	q := vectors[len(vectors)-1]

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(chunks))
	for i := range chunks {
		scores[i] = scored{idx: i, score: dot(q, vectors[i])}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	out := make([]string, 0, topK)
	for _, s := range scores[:topK] {
		out = append(out, chunks[s.idx])
	}
	return out
}

func (r *TFIDFRanker) termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := r.stopWords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	return counts
}

// idf(t) = ln((1+n)/(1+df(t))) + 1
func inverseDocFrequency(docs []map[string]int) map[string]float64 {
	df := make(map[string]int)
	for _, d := range docs {
		for term := range d {
			df[term]++
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, f := range df {
		idf[term] = math.Log((1+n)/(1+float64(f))) + 1
	}
	return idf
}

func weigh(counts map[string]int, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	var norm float64
	for term, c := range counts {
		w := float64(c) * idf[term]
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	return sum
}
