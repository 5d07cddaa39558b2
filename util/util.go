package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jsphweid/fretboard/constants"
	"golang.org/x/exp/constraints"
)

func EnsureOutputDir() (string, error) {
	dir := constants.GetOutDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create output dir %v: %w", dir, err)
	}
	return dir, nil
}

// OutputPath places relative names under the output dir and leaves absolute
// or explicitly relative ("./x") paths alone.
func OutputPath(name string) (string, error) {
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name, nil
	}
	dir, err := EnsureOutputDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := GetKeys(m)
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

func Dedupe[A comparable](items []A) []A {
	seen := make(map[A]bool, len(items))
	var res []A
	for _, v := range items {
		if !seen[v] {
			seen[v] = true
			res = append(res, v)
		}
	}
	return res
}
