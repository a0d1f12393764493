package convert

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tracescope/tracescope/pkg/aggregate"
)

// FoldedSample is one collapsed-stacks line: a semicolon-joined stack and a
// weight in nanoseconds.
type FoldedSample struct {
	Stack []string
	Value int64
}

// Folded is a collapsed-stacks profile, the format flamegraph tooling reads.
type Folded struct {
	Samples []FoldedSample
}

// TreeToFolded flattens a tree view into folded stacks. Each node
// contributes one sample weighted by its self time; nodes with zero self
// time are elided since their weight is fully carried by their children.
func TreeToFolded(tree []*aggregate.TreeNode) *Folded {
	res := &Folded{Samples: make([]FoldedSample, 0)}
	var visit func(stack []string, nodes []*aggregate.TreeNode)
	visit = func(stack []string, nodes []*aggregate.TreeNode) {
		for _, n := range nodes {
			stack = append(stack, n.Name)
			if n.SelfTime > 0 {
				res.Samples = append(res.Samples, FoldedSample{
					Stack: append([]string(nil), stack...),
					Value: int64(n.SelfTime),
				})
			}
			visit(stack, n.Children)
			stack = stack[:len(stack)-1]
		}
	}
	visit(nil, tree)
	return res
}

func (f *Folded) Encode(w io.Writer) error {
	for _, sample := range f.Samples {
		_, err := fmt.Fprintf(w, "%s %d\n", strings.Join(sample.Stack, ";"), sample.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Folded) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	err := f.Encode(buf)
	return buf.Bytes(), err
}

func DecodeFolded(r io.Reader) (*Folded, error) {
	res := &Folded{Samples: make([]FoldedSample, 0)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		idx := strings.LastIndexByte(line, ' ')
		if idx == -1 {
			return nil, errors.New("folded: malformed input")
		}
		value, err := strconv.ParseInt(line[idx+1:], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("folded: malformed input: %w", err)
		}
		res.Samples = append(res.Samples, FoldedSample{
			Stack: strings.Split(line[:idx], ";"),
			Value: value,
		})
	}

	return res, scanner.Err()
}
