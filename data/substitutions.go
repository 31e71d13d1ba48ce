package data

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// A data file may declare "constants" (a map of name to value) and "parameters". Parameters are
// either a list of maps, giving one document per map, or a list of lists of maps, giving one
// document per combination. Occurrences of "<NAME>" in the file are replaced: a quoted
// "<NAME>" becomes the JSON value itself, and <NAME> inside a longer string becomes its text.

type substitutionSet map[string]ldvalue.Value

func expandSubstitutions(original []byte) ([]SourceInfo, error) {
	var header struct {
		Constants  substitutionSet   `json:"constants"`
		Parameters []json.RawMessage `json:"parameters"`
	}
	if err := ParseJSONOrYAML(original, &header); err != nil {
		return nil, err
	}
	if len(header.Constants) == 0 && len(header.Parameters) == 0 {
		return []SourceInfo{{Data: original}}, nil
	}
	paramSets, err := parameterPermutations(header.Parameters)
	if err != nil {
		return nil, err
	}
	if len(paramSets) == 0 {
		return []SourceInfo{{Data: replaceVariables(original, header.Constants)}}, nil
	}
	ret := make([]SourceInfo, 0, len(paramSets))
	for _, params := range paramSets {
		// constants are applied on both sides so that parameters can refer to constants and
		// constants can refer to parameters
		expanded := replaceVariables(original, header.Constants)
		expanded = replaceVariables(expanded, params)
		expanded = replaceVariables(expanded, header.Constants)
		ret = append(ret, SourceInfo{Data: expanded, Params: params})
	}
	return ret, nil
}

func parameterPermutations(raw []json.RawMessage) ([]substitutionSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	all, _ := json.Marshal(raw)
	switch ldvalue.Parse(raw[0]).Type() {
	case ldvalue.ObjectType:
		var list []substitutionSet
		if err := json.Unmarshal(all, &list); err != nil {
			return nil, err
		}
		return list, nil
	case ldvalue.ArrayType:
	default:
		return nil, errors.New("parameters must be an array of objects or an array of arrays of objects")
	}

	var groups [][]substitutionSet
	if err := json.Unmarshal(all, &groups); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if len(g) == 0 {
			return nil, errors.New("a parameter group cannot be empty")
		}
	}
	// counts up like an odometer with the first group as the fastest-moving digit
	indices := make([]int, len(groups))
	var result []substitutionSet
	for {
		merged := make(substitutionSet)
		for i, g := range groups {
			for k, v := range g[indices[i]] {
				merged[k] = v
			}
		}
		result = append(result, merged)
		pos := 0
		for ; pos < len(groups); pos++ {
			indices[pos]++
			if indices[pos] < len(groups[pos]) {
				break
			}
			indices[pos] = 0
		}
		if pos == len(groups) {
			return result, nil
		}
	}
}

func replaceVariables(original []byte, substs substitutionSet) []byte {
	s := string(original)
	// json.Marshal escapes angle brackets
	s = strings.ReplaceAll(s, `\u003c`, "<")
	s = strings.ReplaceAll(s, `\u003e`, ">")
	for name, value := range substs {
		asJSON := value.JSONString()
		s = strings.ReplaceAll(s, `"<`+name+`>"`, asJSON)
		asText := asJSON
		if value.IsString() {
			asText = value.StringValue()
		}
		s = strings.ReplaceAll(s, "<"+name+">", asText)
	}
	return []byte(s)
}
