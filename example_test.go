package outlines_test

import (
	"fmt"

	outlines "github.com/quanliu1991/outlines-core"
	"github.com/quanliu1991/outlines-core/vocabulary"
)

func Example() {
	vocab, err := vocabulary.New(3, map[string][]int{"1": {1}, "a": {2}})
	if err != nil {
		fmt.Println(err)
		return
	}

	re, err := outlines.Compile(`[1-9]`, vocab)
	if err != nil {
		fmt.Println(err)
		return
	}

	g := re.Guide(0)
	fmt.Println(g.GetTokens())

	if _, err := g.Advance(1); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(g.GetTokens())

	if _, err := g.Advance(3); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(g.IsFinished())

	// Output:
	// [1]
	// [3]
	// true
}

func Example_dateFormat() {
	vocab, err := vocabulary.New(0, map[string][]int{
		"2": {1},
		"0": {2},
		"-": {3},
		"1": {4},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	re, err := outlines.Compile(`20\d\d-\d\d-\d\d`, vocab)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(re.Index().NumStates() > 0)

	// Output:
	// true
}
