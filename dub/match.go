package dub

import (
	"fmt"
)

type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// EvalMatchExpr lays expr over a pattern of beats quarter notes split into stepsPerBeat steps
// and returns one entry per step: 1 where a note starts, 0 elsewhere. This is how the steps
// command turns '2,4/* into notes on every 8th of beats two and four.
//
// The first level of expr numbers the beats of the pattern from 1. Each following slash halves
// the unit, and the notes of that unit are numbered from 1 within their beat. A step is
// selected when it starts a unit of the deepest level and every level matches the unit that
// contains it.
func EvalMatchExpr(expr MatchExpr, beats, stepsPerBeat int) ([]int, error) {
	if beats < 1 || stepsPerBeat < 1 {
		return nil, fmt.Errorf("invalid pattern size: %d beats of %d steps", beats, stepsPerBeat)
	}
	if len(expr.matchers) == 0 {
		return nil, fmt.Errorf("empty match expression")
	}
	units := make([]int, len(expr.matchers)) // steps per unit, by matcher
	for n, item := range expr.matchers {
		perBeat := 1 << uint(item.level)
		if perBeat > stepsPerBeat || stepsPerBeat%perBeat != 0 {
			return nil, fmt.Errorf("can't split a beat of %d steps into %d notes", stepsPerBeat, perBeat)
		}
		units[n] = stepsPerBeat / perBeat
	}
	deepest := units[len(units)-1]

	seq := make([]int, beats*stepsPerBeat)
	for step := range seq {
		if step%deepest != 0 {
			continue
		}
		beat, within := step/stepsPerBeat, step%stepsPerBeat
		selected := true
		for n, item := range expr.matchers {
			num := within/units[n] + 1
			if item.level == 0 {
				num = beat + 1
			}
			if !item.matcher.match(num) {
				selected = false
				break
			}
		}
		if selected {
			seq[step] = 1
		}
	}
	return seq, nil
}
