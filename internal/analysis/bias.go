package analysis

import (
	"fmt"
	"math"

	"github.com/fairexam/fairexam/internal/classify"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// Fairness indicators and the flag each one counts against.
var indicators = []struct {
	name string
	flag taxonomy.BiasFlag
}{
	{"cultural_neutrality", taxonomy.BiasCultural},
	{"gender_neutrality", taxonomy.BiasGender},
	{"socioeconomic_neutrality", taxonomy.BiasSocioeconomic},
	{"clarity", taxonomy.BiasAmbiguous},
	{"accessibility", taxonomy.BiasBackgroundAssumption},
}

// assessBias summarizes the flags of the questions a model assessed.
// Heuristically classified questions carry no flags and are left out, so
// they neither raise nor lower the indicators.
func assessBias(questions []*classify.Question) BiasAnalysis {
	out := BiasAnalysis{
		Issues:             []string{},
		FairnessIndicators: map[string]float64{},
	}

	assessed := 0
	flagged := make(map[taxonomy.BiasFlag]int, len(indicators))
	for _, q := range questions {
		if !q.BiasAssessed() {
			continue
		}
		assessed++
		if len(q.BiasFlags) == 0 {
			continue
		}
		out.BiasDetected = true
		for _, f := range q.BiasFlags {
			flagged[f]++
		}
		out.Issues = append(out.Issues, issueLine(q))
	}

	if assessed == 0 {
		return out
	}
	for _, ind := range indicators {
		clean := assessed - flagged[ind.flag]
		out.FairnessIndicators[ind.name] = math.Round(float64(clean)/float64(assessed)*1000) / 10
	}
	return out
}

func issueLine(q *classify.Question) string {
	line := fmt.Sprintf("Question %d: ", q.ID)
	for i, f := range q.BiasFlags {
		if i > 0 {
			line += ", "
		}
		line += f.Description()
	}
	if q.BiasNotes != "" {
		line += " - " + q.BiasNotes
	}
	return line
}
