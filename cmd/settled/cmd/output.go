package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"cosmossdk.io/math"
	"gopkg.in/yaml.v2"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// printYAML writes v as YAML, keeping the JSON field names and order of the
// engine types.
func printYAML(w io.Writer, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(bz, &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}

// parseAmount parses a non-negative decimal quantity. An empty string is zero.
func parseAmount(name, s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("%s: invalid amount %q", name, s)
	}
	if err := types.ValidateUint128(name, v); err != nil {
		return math.Int{}, err
	}
	return v, nil
}
