package app

import (
	"os"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
	errgo "gopkg.in/errgo.v1"
)

// LoadParamFile reads simulation tunables from a TOML file. See ParseParams
// for the accepted layout.
func LoadParamFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errgo.Notef(err, "cannot read parameter file")
	}
	params, err := ParseParams(string(data))
	if err != nil {
		return nil, errgo.Notef(err, "cannot parse %q", path)
	}
	return params, nil
}

// ParseParams converts a TOML document into the flat key/value form accepted
// by the simulation factories. Keys may appear at the top level or inside
// tables, whose names are ignored:
//
//	seed = 7
//	base_color = "#d8b070"
//
//	[relaxation]
//	critical_slope = 1.5
//	relax_passes = 4
//
// A key defined twice is an error, as is any value that is not a string,
// number or boolean.
func ParseParams(doc string) (map[string]string, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(doc, &raw); err != nil {
		return nil, errgo.Mask(err)
	}
	out := map[string]string{}
	if err := flattenParams(out, raw); err != nil {
		return nil, errgo.Mask(err)
	}
	return out, nil
}

func flattenParams(out map[string]string, table map[string]interface{}) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var value string
		switch v := table[key].(type) {
		case map[string]interface{}:
			if err := flattenParams(out, v); err != nil {
				return err
			}
			continue
		case string:
			value = v
		case int64:
			value = strconv.FormatInt(v, 10)
		case float64:
			value = strconv.FormatFloat(v, 'g', -1, 64)
		case bool:
			value = strconv.FormatBool(v)
		default:
			return errgo.Newf("parameter %q has unsupported type %T", key, v)
		}
		if _, dup := out[key]; dup {
			return errgo.Newf("parameter %q defined more than once", key)
		}
		out[key] = value
	}
	return nil
}
