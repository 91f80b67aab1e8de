package topics

import (
	"sort"

	"github.com/fairexam/fairexam/internal/taxonomy"
)

// DefaultOverRepresentationFactor marks a topic over-represented when it
// draws more than twice the mean number of questions per topic.
const DefaultOverRepresentationFactor = 2.0

// Coverage summarizes how a paper's questions spread over the syllabus.
type Coverage struct {
	// Topics holds the labels in syllabus order.
	Topics []string

	// Counts holds the number of questions matched to each topic,
	// including zeroes.
	Counts map[string]int

	Covered         int
	Ignored         []string
	OverRepresented []string
	Total           int
	Percentage      float64

	// Assignments maps question IDs to matched labels.
	Assignments map[int][]string

	// Unmapped lists the IDs of questions that matched no topic.
	Unmapped []int

	Source taxonomy.Source
}

// NewCoverage builds coverage from a matching. Questions without topics
// are listed in Unmapped and do not count toward any topic. A non-positive
// factor selects DefaultOverRepresentationFactor.
func NewCoverage(topics []Topic, matching *Matching, factor float64) (*Coverage, error) {
	topics = Dedupe(topics)
	if len(topics) == 0 {
		return nil, ErrNoTopicsFound
	}
	if factor <= 0 {
		factor = DefaultOverRepresentationFactor
	}

	c := &Coverage{
		Topics:          Labels(topics),
		Counts:          make(map[string]int, len(topics)),
		Ignored:         []string{},
		OverRepresented: []string{},
		Total:           len(topics),
		Assignments:     make(map[int][]string),
		Unmapped:        []int{},
	}
	for _, label := range c.Topics {
		c.Counts[label] = 0
	}

	if matching != nil {
		c.Source = matching.Source
		for id, labels := range matching.Assignments {
			counted := make([]string, 0, len(labels))
			for _, label := range labels {
				if _, ok := c.Counts[label]; !ok {
					continue
				}
				c.Counts[label]++
				counted = append(counted, label)
			}
			c.Assignments[id] = counted
			if len(counted) == 0 {
				c.Unmapped = append(c.Unmapped, id)
			}
		}
		sort.Ints(c.Unmapped)
	}

	sum := 0
	for _, n := range c.Counts {
		sum += n
	}
	mean := float64(sum) / float64(c.Total)

	for _, label := range c.Topics {
		n := c.Counts[label]
		if n == 0 {
			c.Ignored = append(c.Ignored, label)
			continue
		}
		c.Covered++
		if float64(n) > factor*mean {
			c.OverRepresented = append(c.OverRepresented, label)
		}
	}
	c.Percentage = float64(c.Covered) / float64(c.Total) * 100
	return c, nil
}
