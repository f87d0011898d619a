package triage

import (
	"sort"
	"strings"
)

const (
	UrgencyLow      = "low"
	UrgencyModerate = "moderate"
	UrgencyHigh     = "high"
)

// symptomVariations maps each canonical symptom key to the phrasings, French
// and English, accepted from free-text input.
var symptomVariations = map[string][]string{
	"headache":            {"maux de tête", "migraine", "céphalée", "mal à la tête", "headache"},
	"fever":               {"fièvre", "température élevée", "hyperthermie", "chaud", "température", "fever"},
	"cough":               {"toux", "toux sèche", "toux grasse", "tousser", "cough"},
	"fatigue":             {"fatigue", "épuisement", "faiblesse", "fatigué", "épuisé"},
	"dizziness":           {"vertiges", "étourdissements", "vertige", "étourdi", "dizziness"},
	"nausea":              {"nausée", "envie de vomir", "mal au coeur", "vomissement", "nausea"},
	"chest_pain":          {"douleur thoracique", "douleur poitrine", "mal à la poitrine", "chest pain"},
	"shortness_of_breath": {"essoufflement", "difficulté à respirer", "souffle court", "shortness of breath"},
	"sore_throat":         {"mal à la gorge", "gorge irritée", "pharyngite", "sore throat"},
	"runny_nose":          {"nez qui coule", "rhinorrhée", "écoulement nasal", "runny nose"},
	"muscle_pain":         {"douleurs musculaires", "courbatures", "mal aux muscles", "muscle pain"},
	"joint_pain":          {"douleurs articulaires", "mal aux articulations", "joint pain"},
	"chills":              {"frissons", "tremblements", "froid", "chills"},
	"loss_of_appetite":    {"perte d'appétit", "manque d'appétit", "loss of appetite"},
	"stomach_pain":        {"mal au ventre", "douleur abdominale", "crampes", "stomach pain"},
}

type conditionProfile struct {
	symptoms []string
	weights  []float64
	minScore float64
}

var conditions = map[string]conditionProfile{
	"Hypertension": {
		symptoms: []string{"headache", "dizziness", "chest_pain"},
		weights:  []float64{0.3, 0.3, 0.4},
		minScore: 0.5,
	},
	"Infection Respiratoire": {
		symptoms: []string{"fever", "cough", "fatigue", "sore_throat", "runny_nose"},
		weights:  []float64{0.3, 0.3, 0.2, 0.1, 0.1},
		minScore: 0.4,
	},
	"Migraine": {
		symptoms: []string{"headache", "nausea", "dizziness", "fatigue"},
		weights:  []float64{0.4, 0.2, 0.2, 0.2},
		minScore: 0.6,
	},
	"Pneumonie": {
		symptoms: []string{"fever", "cough", "shortness_of_breath", "chest_pain", "fatigue"},
		weights:  []float64{0.25, 0.25, 0.25, 0.15, 0.1},
		minScore: 0.5,
	},
	"Grippe": {
		symptoms: []string{"fever", "fatigue", "muscle_pain", "headache", "cough"},
		weights:  []float64{0.3, 0.2, 0.2, 0.15, 0.15},
		minScore: 0.4,
	},
	"Gastro-entérite": {
		symptoms: []string{"nausea", "stomach_pain", "fever", "fatigue", "loss_of_appetite"},
		weights:  []float64{0.3, 0.3, 0.15, 0.15, 0.1},
		minScore: 0.4,
	},
}

// highRiskSymptoms force high urgency whatever the confidence.
var highRiskSymptoms = map[string]bool{
	"chest_pain":          true,
	"shortness_of_breath": true,
}

// multiMatchBonus rewards conditions matching three or more symptoms.
const multiMatchBonus = 1.2

// confidenceCap keeps the reported confidence below certainty.
const confidenceCap = 95

// maxResults bounds how many candidate conditions a diagnosis returns.
const maxResults = 3

// Diagnosis is one candidate condition for a symptom set.
type Diagnosis struct {
	Condition       string `json:"condition"`
	Confidence      int    `json:"confidence"`
	Urgency         string `json:"urgency"`
	MatchedSymptoms int    `json:"matched_symptoms"`
}

// normalizeSymptom resolves a free-text phrase to its canonical key. The
// canonical key itself is accepted alongside the listed variations. Unknown
// phrases return "".
func normalizeSymptom(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := symptomVariations[s]; ok {
		return s
	}
	for key, variations := range symptomVariations {
		for _, v := range variations {
			if s == v {
				return key
			}
		}
	}
	return ""
}

// ParseSymptoms splits a comma-separated symptom description and normalizes
// each part. Unrecognized phrases are dropped.
func ParseSymptoms(text string) []string {
	seen := make(map[string]bool)
	for _, part := range strings.Split(text, ",") {
		if key := normalizeSymptom(part); key != "" {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func conditionScore(symptoms map[string]bool, profile conditionProfile) float64 {
	score := 0.0
	matched := 0
	for i, s := range profile.symptoms {
		if symptoms[s] {
			score += profile.weights[i]
			matched++
		}
	}
	if matched >= 3 {
		score *= multiMatchBonus
	}
	return score
}

// Diagnose scores every known condition against the symptom text and returns
// up to three candidates ordered by confidence.
func Diagnose(symptomsText string) []Diagnosis {
	keys := ParseSymptoms(symptomsText)
	symptoms := make(map[string]bool, len(keys))
	for _, k := range keys {
		symptoms[k] = true
	}

	var results []Diagnosis
	for name, profile := range conditions {
		score := conditionScore(symptoms, profile)
		if score < profile.minScore {
			continue
		}
		confidence := int(score * 100)
		if confidence > confidenceCap {
			confidence = confidenceCap
		}
		results = append(results, Diagnosis{
			Condition:       name,
			Confidence:      confidence,
			Urgency:         urgency(confidence, symptoms),
			MatchedSymptoms: len(keys),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Condition < results[j].Condition
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func urgency(confidence int, symptoms map[string]bool) string {
	for s := range symptoms {
		if highRiskSymptoms[s] {
			return UrgencyHigh
		}
	}
	switch {
	case confidence > 80:
		return UrgencyHigh
	case confidence > 60:
		return UrgencyModerate
	default:
		return UrgencyLow
	}
}
