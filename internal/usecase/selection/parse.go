package selection

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TopK is the number of candidates a selection ends with.
const TopK = 3

var numericToken = regexp.MustCompile(`\b\d+\b`)

// structuredRanking is the answer format requested in the ranking prompt.
type structuredRanking struct {
	Ranking []int `json:"ranking"`
}

// ExtractLegacy reads identifiers from a free-form ranked list. It keeps the
// standalone numbers not above maxIdentifier and returns every second one
// (0-based indices 1, 3, 5, ...), assuming rank numbers and identifiers
// alternate. Duplicates keep their first position.
//
//	ExtractLegacy("1. 3\n2. 1\n3. 7", 7) // [3 1 7]
func ExtractLegacy(response string, maxIdentifier int) []int {
	var plausible []int
	for _, tok := range numericToken.FindAllString(response, -1) {
		v, err := strconv.Atoi(tok)
		if err != nil || v > maxIdentifier {
			continue
		}
		plausible = append(plausible, v)
	}

	var ids []int
	seen := make(map[int]struct{})
	for i := 1; i < len(plausible); i += 2 {
		id := plausible[i]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ParseIdentifiers extracts ranked identifiers from an oracle response about
// a group whose identifiers are valid.
//
// A JSON object with a "ranking" array is validated strictly: any identifier
// outside valid yields a *ParseError, and at most TopK are kept. Without such
// an object the free-form heuristic of ExtractLegacy is used, bounded by
// maxIdentifier, and every identifier it yields that is in valid is kept. An
// empty result is reported as ErrParseAmbiguity.
func ParseIdentifiers(response string, valid map[int]struct{}, maxIdentifier int) ([]int, error) {
	if ranking, ok := structuredIdentifiers(response); ok {
		ids := make([]int, 0, TopK)
		seen := make(map[int]struct{}, len(ranking))
		for _, id := range ranking {
			if _, in := valid[id]; !in {
				return nil, &ParseError{Identifier: id, Reason: "not a member of the ranked group"}
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) == TopK {
				break
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: empty ranking", ErrParseAmbiguity)
		}
		return ids, nil
	}

	var ids []int
	for _, id := range ExtractLegacy(response, maxIdentifier) {
		if _, in := valid[id]; in {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no identifiers found", ErrParseAmbiguity)
	}
	return ids, nil
}

// structuredIdentifiers decodes the text between the first '{' and the last
// '}' as a structured ranking. ok is false when there is no such object or
// it carries no "ranking" field.
func structuredIdentifiers(response string) ([]int, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, false
	}
	if _, ok := raw["ranking"]; !ok {
		return nil, false
	}

	var sr structuredRanking
	if err := json.Unmarshal([]byte(response[start:end+1]), &sr); err != nil {
		return nil, false
	}
	return sr.Ranking, true
}
