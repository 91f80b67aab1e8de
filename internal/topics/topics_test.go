package topics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

const syllabus = `CS201 Data Structures
Course objectives: build fluency with core data structures.

Unit 1: Arrays and Linked Lists
Unit 2: Stacks and Queues
Unit 3: Binary Search Trees
Unit 4: Hash Tables
Unit 5: Graph Algorithms

Assessment: midterm 30%, final 50%, labs 20%.`

func TestDedupe(t *testing.T) {
	got := Dedupe([]Topic{{"  Sorting "}, {"sorting"}, {""}, {"Hash   Tables"}, {"   "}})
	assert.Equal(t, []Topic{{"Sorting"}, {"Hash Tables"}}, got)
}

func TestHeuristicExtractor_Units(t *testing.T) {
	h := &HeuristicExtractor{MaxTopics: 15}
	ext, err := h.Extract(context.Background(), syllabus)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.SourceHeuristic, ext.Source)
	assert.Equal(t, []string{
		"Arrays and Linked Lists",
		"Stacks and Queues",
		"Binary Search Trees",
		"Hash Tables",
		"Graph Algorithms",
	}, Labels(ext.Topics))
}

func TestHeuristicExtractor_Bullets(t *testing.T) {
	text := "Topics covered\n- Supply and demand\n• Market equilibrium\n* Elasticity\n2) Consumer surplus"
	ext, err := (&HeuristicExtractor{}).Extract(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Supply and demand", "Market equilibrium", "Elasticity", "Consumer surplus"}, Labels(ext.Topics))
}

func TestHeuristicExtractor_Headings(t *testing.T) {
	text := "Introduction to Ecology\nthis course looks at living systems.\nPopulation Dynamics\nEnergy Flow in Ecosystems\nStudents will write essays."
	ext, err := (&HeuristicExtractor{}).Extract(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Introduction to Ecology", "Population Dynamics", "Energy Flow in Ecosystems"}, Labels(ext.Topics))
}

func TestHeuristicExtractor_Keywords(t *testing.T) {
	text := "we study entropy, then entropy again, and enthalpy. enthalpy and entropy matter."
	ext, err := (&HeuristicExtractor{}).Extract(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, ext.Topics)
	assert.Equal(t, "Entropy", ext.Topics[0].Label)
	assert.Equal(t, "Enthalpy", ext.Topics[1].Label)
}

func TestHeuristicExtractor_GeneralTopic(t *testing.T) {
	ext, err := (&HeuristicExtractor{}).Extract(context.Background(), "a b c. 1 2 3.")
	require.NoError(t, err)
	assert.Equal(t, []Topic{{GeneralTopic}}, ext.Topics)
}

func TestHeuristicExtractor_Cap(t *testing.T) {
	text := ""
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"} {
		text += "- Topic " + name + "\n"
	}
	ext, err := (&HeuristicExtractor{MaxTopics: 3}).Extract(context.Background(), text)
	require.NoError(t, err)
	assert.Len(t, ext.Topics, 3)
}

func TestExtract_EmptySyllabus(t *testing.T) {
	mock := llm.NewMockProvider()
	for _, e := range []Extractor{
		&HeuristicExtractor{},
		NewLLMExtractor(mock, DefaultExtractorConfig()),
		NewFallbackExtractor(mock, DefaultExtractorConfig()),
	} {
		_, err := e.Extract(context.Background(), "  \n\t")
		assert.ErrorIs(t, err, ErrNoTopicsFound, e.Name())
	}
	assert.Zero(t, mock.CallCount())
}

func TestLLMExtractor(t *testing.T) {
	resp := json.RawMessage("```json\n{\"topics\":[\"Sorting\",\"sorting\",\"Graphs\"]}\n```")
	mock := llm.NewMockProvider().On(llm.PurposeTopicExtraction, llm.MockResponse{Content: resp})

	cfg := DefaultExtractorConfig()
	cfg.MaxSyllabusChars = 20
	ext, err := NewLLMExtractor(mock, cfg).Extract(context.Background(), syllabus)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sorting", "Graphs"}, Labels(ext.Topics))
	assert.Equal(t, taxonomy.SourceAI, ext.Source)

	require.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "Syllabus:\n"+syllabus[:20], mock.Calls[0].Messages[0].Content)
}

func TestLLMExtractor_RejectsEmptyOrBlank(t *testing.T) {
	for _, body := range []string{`{"topics":[]}`, `{"topics":["Sorting","  "]}`} {
		mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(body)})
		_, err := NewLLMExtractor(mock, DefaultExtractorConfig()).Extract(context.Background(), syllabus)
		var invalid *llm.ErrInvalidResponse
		assert.True(t, errors.As(err, &invalid), body)
	}
}

func TestFallbackExtractor(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrTimeout{After: time.Second}})
	ext, err := NewFallbackExtractor(mock, DefaultExtractorConfig()).Extract(context.Background(), syllabus)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.SourceHeuristic, ext.Source)
	assert.Len(t, ext.Topics, 5)
}

func TestFallbackExtractor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := llm.NewMockProvider(llm.MockResponse{Delay: time.Minute})
	_, err := NewFallbackExtractor(mock, DefaultExtractorConfig()).Extract(ctx, syllabus)
	assert.ErrorIs(t, err, context.Canceled)
}

func questions(texts ...string) []*classify.Question {
	out := make([]*classify.Question, len(texts))
	for i, text := range texts {
		out[i] = &classify.Question{ID: i + 1, Text: text}
	}
	return out
}

var dsTopics = []Topic{
	{"Arrays and Linked Lists"},
	{"Stacks and Queues"},
	{"Binary Search Trees"},
	{"Hash Tables"},
	{"Graph Algorithms"},
}

func TestLexicalMatcher(t *testing.T) {
	qs := questions(
		"Explain how a hash table resolves collisions.",
		"Insert 5, 3, 8 into an empty binary search tree and draw the tree.",
		"Describe the French Revolution.",
		"Implement a queue using two stacks.",
	)
	m, err := NewLexicalMatcher().Match(context.Background(), qs, dsTopics)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.SourceHeuristic, m.Source)
	assert.Equal(t, []string{"Hash Tables"}, m.Assignments[1])
	assert.Equal(t, []string{"Binary Search Trees"}, m.Assignments[2])
	assert.Empty(t, m.Assignments[3])
	assert.Contains(t, m.Assignments, 3)
	assert.Equal(t, []string{"Stacks and Queues"}, m.Assignments[4])
}

func TestLexicalMatcher_CapAndOrder(t *testing.T) {
	list := []Topic{{"Sorting"}, {"Sorting Networks"}, {"Merge Sort"}, {"Sorting Stability"}, {"Networks"}}
	qs := questions("Compare merge sort with sorting networks for stability.")
	m, err := NewLexicalMatcher().Match(context.Background(), qs, list)
	require.NoError(t, err)
	require.Len(t, m.Assignments[1], MaxTopicsPerQuestion)
	assert.Equal(t, "Sorting Networks", m.Assignments[1][0])
}

func TestLLMMatcher(t *testing.T) {
	resp := json.RawMessage(`{"matches":[
		{"number":1,"topics":["hash tables","Unknown Topic"]},
		{"number":1,"topics":["Graph Algorithms"]},
		{"number":9,"topics":["Hash Tables"]},
		{"number":2,"topics":[]}
	]}`)
	mock := llm.NewMockProvider().On(llm.PurposeTopicMatching, llm.MockResponse{Content: resp})
	qs := questions("Explain hashing.", "Describe the French Revolution.", "Explain Dijkstra's algorithm.")

	m, err := NewLLMMatcher(mock, DefaultMatcherConfig()).Match(context.Background(), qs, dsTopics)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hash Tables"}, m.Assignments[1])
	assert.Empty(t, m.Assignments[2])
	assert.NotContains(t, m.Assignments, 3)
	assert.NotContains(t, m.Assignments, 9)

	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "- Binary Search Trees\n")
	assert.Contains(t, prompt, "3. Explain Dijkstra's algorithm.\n")
}

func TestFallbackMatcher_FillsUnresolved(t *testing.T) {
	resp := json.RawMessage(`{"matches":[{"number":1,"topics":["Hash Tables"]}]}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})
	qs := questions("Explain hashing.", "Find shortest paths with graph algorithms.")

	m, err := NewFallbackMatcher(mock, DefaultMatcherConfig()).Match(context.Background(), qs, dsTopics)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.SourceMixed, m.Source)
	assert.Equal(t, []string{"Hash Tables"}, m.Assignments[1])
	assert.Equal(t, []string{"Graph Algorithms"}, m.Assignments[2])
}

func TestFallbackMatcher_PrimaryFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	qs := questions("Explain hash tables.")
	m, err := NewFallbackMatcher(mock, DefaultMatcherConfig()).Match(context.Background(), qs, dsTopics)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.SourceHeuristic, m.Source)
	assert.Equal(t, []string{"Hash Tables"}, m.Assignments[1])
}

func TestFallbackMatcher_MalformedEntry(t *testing.T) {
	for _, bad := range []string{
		`{"number":"2","topics":["Graph Algorithms"]}`,
		`{"number":2,"topics":"Graph Algorithms"}`,
		`{"number":2,"topics":["Graph Algorithms"],"confidence":0.9}`,
	} {
		resp := json.RawMessage(`{"matches":[
			{"number":1,"topics":["Hash Tables"]},
			` + bad + `,
			{"number":3,"topics":["Stacks and Queues"]}
		]}`)
		mock := llm.NewMockProvider().On(llm.PurposeTopicMatching, llm.MockResponse{Content: resp})
		qs := questions("Explain hashing.", "Find shortest paths with graph algorithms.", "Push three items onto a stack.")

		m, err := NewFallbackMatcher(mock, DefaultMatcherConfig()).Match(context.Background(), qs, dsTopics)
		require.NoError(t, err, bad)
		assert.Equal(t, []string{"Hash Tables"}, m.Assignments[1], bad)
		assert.Equal(t, []string{"Stacks and Queues"}, m.Assignments[3], bad)
		assert.Equal(t, []string{"Graph Algorithms"}, m.Assignments[2], bad)
		assert.Equal(t, 1, mock.CallCount(), bad)
	}
}

func TestMatch_NoTopics(t *testing.T) {
	mock := llm.NewMockProvider()
	qs := questions("Explain hashing.")
	for _, m := range []Matcher{
		NewLexicalMatcher(),
		NewLLMMatcher(mock, DefaultMatcherConfig()),
		NewFallbackMatcher(mock, DefaultMatcherConfig()),
	} {
		_, err := m.Match(context.Background(), qs, nil)
		assert.ErrorIs(t, err, ErrNoTopicsFound, m.Name())
	}
	assert.Zero(t, mock.CallCount())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "ab", truncate("ab\u00e9cd", 3))
	assert.Equal(t, "ab\u00e9", truncate("ab\u00e9cd", 4))
	assert.Equal(t, "abc", truncate("ab\xffcd", 3))
	assert.Equal(t, "", truncate("\u00e9t\u00e9", 1))
}

func TestNewCoverage_AllCovered(t *testing.T) {
	m := &Matching{Assignments: map[int][]string{}, Source: taxonomy.SourceAI}
	for i := 1; i <= 10; i++ {
		m.Assignments[i] = []string{dsTopics[(i-1)%5].Label}
	}
	c, err := NewCoverage(dsTopics, m, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.Percentage)
	assert.Equal(t, 5, c.Covered)
	assert.Empty(t, c.Ignored)
	assert.Empty(t, c.OverRepresented)
	assert.Equal(t, taxonomy.SourceAI, c.Source)
}

func TestNewCoverage_OneTopicRepeated(t *testing.T) {
	list := dsTopics[:4]
	m := &Matching{Assignments: map[int][]string{}}
	for i := 1; i <= 8; i++ {
		m.Assignments[i] = []string{"Hash Tables"}
	}
	m.Assignments[9] = []string{}

	c, err := NewCoverage(list, m, DefaultOverRepresentationFactor)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Covered)
	assert.Len(t, c.Ignored, 3)
	assert.Equal(t, []string{"Hash Tables"}, c.OverRepresented)
	assert.Equal(t, 25.0, c.Percentage)
	assert.Equal(t, []int{9}, c.Unmapped)
	assert.Equal(t, c.Total, c.Covered+len(c.Ignored))
	assert.Equal(t, 0, c.Counts["Stacks and Queues"])
}

func TestNewCoverage_NoTopics(t *testing.T) {
	_, err := NewCoverage(nil, &Matching{}, 2)
	assert.ErrorIs(t, err, ErrNoTopicsFound)
}
